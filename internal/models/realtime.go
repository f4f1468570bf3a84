package models

import "time"

// EventKind names a committed change to a trade room.
type EventKind string

const (
	EventRoomCreated     EventKind = "room_created"
	EventStatusChanged   EventKind = "status_changed"
	EventRequestProposed EventKind = "request_proposed"
	EventRequestResolved EventKind = "request_resolved"
	EventLocationUpdated EventKind = "location_updated"
	EventMessagePosted   EventKind = "message_posted"
)

// TradeEvent is published after a trade mutation commits. It feeds the live
// room feed and notifications; it is not a source of truth.
type TradeEvent struct {
	Kind      EventKind    `json:"kind"`
	RoomID    string       `json:"room_id"`
	SellerID  string       `json:"seller_id"`
	BuyerID   string       `json:"buyer_id"`
	ActorID   string       `json:"actor_id"`
	Status    TradeStatus  `json:"status,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Target    TradeStatus  `json:"target_status,omitempty"`
	State     RequestState `json:"state,omitempty"`
	MessageID uint         `json:"message_id,omitempty"`
	Text      string       `json:"text,omitempty"`
	At        time.Time    `json:"at"`
}

// Recipient returns the participant who did not cause the event.
func (e TradeEvent) Recipient() string {
	switch e.ActorID {
	case e.SellerID:
		return e.BuyerID
	case e.BuyerID:
		return e.SellerID
	}
	return ""
}
