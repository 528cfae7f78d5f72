package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxDepositAdjustments bounds the adjustment history kept on a rental.
// Older entries fall off the front once the ring is full.
const maxDepositAdjustments = 20

// DisputeInfo captures the dispute raised against a rental.
type DisputeInfo struct {
	RaisedBy    uuid.UUID  `json:"raised_by"`
	Reason      string     `json:"reason"`
	EvidenceURL *string    `json:"evidence_url,omitempty"`
	RaisedAt    time.Time  `json:"raised_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Resolution  *string    `json:"resolution,omitempty"`
}

// InspectionInfo records the post-return inspection verdict.
type InspectionInfo struct {
	Outcome      string          `json:"outcome"`
	InspectedBy  uuid.UUID       `json:"inspected_by"`
	InspectedAt  time.Time       `json:"inspected_at"`
	DamageCharge decimal.Decimal `json:"damage_charge"`
	Notes        *string         `json:"notes,omitempty"`
}

// DepositAdjustment is one movement against the held deposit.
type DepositAdjustment struct {
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// RentalMeta is the free-form rental sidecar persisted as jsonb.
type RentalMeta struct {
	Dispute            *DisputeInfo        `json:"dispute,omitempty"`
	Inspection         *InspectionInfo     `json:"inspection,omitempty"`
	DepositAdjustments []DepositAdjustment `json:"deposit_adjustments,omitempty"`
	CancelReason       *string             `json:"cancel_reason,omitempty"`
}

// AppendDepositAdjustment records an adjustment, keeping at most
// maxDepositAdjustments recent entries.
func (m *RentalMeta) AppendDepositAdjustment(adj DepositAdjustment) {
	m.DepositAdjustments = append(m.DepositAdjustments, adj)
	if overflow := len(m.DepositAdjustments) - maxDepositAdjustments; overflow > 0 {
		m.DepositAdjustments = m.DepositAdjustments[overflow:]
	}
}
