package trade

import "seogaeum/backend/internal/models"

// Mechanism is a way a room may change status.
type Mechanism uint8

const (
	// SellerDirect is the seller granting approval alone.
	SellerDirect Mechanism = 1 << iota
	// MutualConsent is a proposal accepted by the other participant.
	MutualConsent
	// BuyerReceipt is the buyer confirming pickup from the locker.
	BuyerReceipt
)

func (m Mechanism) String() string {
	switch m {
	case SellerDirect:
		return "seller_direct"
	case MutualConsent:
		return "mutual_consent"
	case BuyerReceipt:
		return "buyer_receipt"
	}
	return "unknown"
}

type edge struct {
	from, to models.TradeStatus
}

// transitions is the only place allowed status changes are defined. A new
// status is unreachable until it is added here.
var transitions = map[edge]Mechanism{
	{models.StatusRequested, models.StatusApproved}:      SellerDirect,
	{models.StatusRequested, models.StatusLibraryStored}: MutualConsent,
	{models.StatusRequested, models.StatusCompleted}:     MutualConsent,
	{models.StatusApproved, models.StatusLibraryStored}:  MutualConsent,
	{models.StatusApproved, models.StatusCompleted}:      MutualConsent,
	{models.StatusLibraryStored, models.StatusCompleted}: MutualConsent | BuyerReceipt,
}

// CanTransition reports whether the room may go from one status to another
// through mechanism m.
func CanTransition(from, to models.TradeStatus, m Mechanism) bool {
	return transitions[edge{from, to}]&m != 0
}

// IsProposable reports whether target may be the subject of a status change
// request at all.
func IsProposable(target models.TradeStatus) bool {
	return target == models.StatusLibraryStored || target == models.StatusCompleted
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s models.TradeStatus) bool {
	switch s {
	case models.StatusRequested, models.StatusApproved, models.StatusLibraryStored, models.StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.TradeStatus) bool {
	for e := range transitions {
		if e.from == s {
			return false
		}
	}
	return ValidStatus(s)
}
