package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestState is the approval state of a StatusChangeRequest.
type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestAccepted RequestState = "accepted"
	RequestRejected RequestState = "rejected"
)

// StatusChangeRequest is a participant's proposal to move a room to
// TargetStatus. Only the other participant may resolve it, and a resolved
// request never changes again.
//
// At most one pending request per (room, target) exists; the partial unique
// index is created in storage.Migrate.
type StatusChangeRequest struct {
	ID           string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	RoomID       string       `gorm:"type:varchar(36);not null;index" json:"room_id"`
	RequesterID  string       `gorm:"not null" json:"requester_id"`
	TargetStatus TradeStatus  `gorm:"type:varchar(20);not null" json:"target_status"`
	State        RequestState `gorm:"type:varchar(10);not null;default:pending;index" json:"state"`
	ResolvedBy   *string      `json:"resolved_by,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// BeforeCreate assigns a UUID to new requests.
func (r *StatusChangeRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// IsPending reports whether the request still awaits a decision.
func (r *StatusChangeRequest) IsPending() bool {
	return r.State == RequestPending
}
