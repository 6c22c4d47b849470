package circulation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FineStatus represents the lifecycle state of a fine.
// Pending fines may be recalculated; paid and waived are terminal and frozen.
type FineStatus string

const (
	FineStatusPending FineStatus = "pending"
	FineStatusPaid    FineStatus = "paid"
	FineStatusWaived  FineStatus = "waived"
)

// IsSettled reports whether the fine has reached a terminal state.
func (s FineStatus) IsSettled() bool {
	return s == FineStatusPaid || s == FineStatusWaived
}

// Fine is the accrued charge for an overdue loan, 1:1 with the loan instance
// that generated it. Amount and DaysOverdue may be recomputed while the fine
// is pending; they are frozen the instant the fine is settled.
//
// SettlementDetail holds the payment method for paid fines and the waiver
// reason for waived fines.
type Fine struct {
	ID               uuid.UUID
	LoanID           uuid.UUID
	PatronID         uuid.UUID
	Amount           decimal.Decimal
	DaysOverdue      int
	RatePerDay       decimal.Decimal
	Status           FineStatus
	CalculatedAt     time.Time
	SettledAt        *time.Time
	SettlementDetail string
}

// FineTransactionKind classifies entries in the append-only fine journal.
type FineTransactionKind string

const (
	FineTransactionCreated      FineTransactionKind = "created"
	FineTransactionRecalculated FineTransactionKind = "recalculated"
	FineTransactionPaid         FineTransactionKind = "paid"
	FineTransactionWaived       FineTransactionKind = "waived"
)

// FineTransaction is one immutable entry in the fine audit journal. The
// journal is append-only and distinct from the mutable fine row, so
// settlements leave a permanent trail even though the fine row itself
// stops changing.
type FineTransaction struct {
	ID         uuid.UUID
	FineID     uuid.UUID
	LoanID     uuid.UUID
	Kind       FineTransactionKind
	Amount     decimal.Decimal
	OccurredAt time.Time
	DetailJSON []byte
}
