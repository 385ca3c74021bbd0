// Package queue defines message payloads exchanged over the message broker.
package queue

// PointsTransferredEvent is published after a points transfer commits.
// It carries enough information for downstream consumers to log or
// notify without querying the primary database. Monetary values are
// serialized as decimal strings.
type PointsTransferredEvent struct {
	SourceAccountID      uint64 `json:"source_account_id"`
	DestinationAccountID uint64 `json:"destination_account_id"`
	Points               int64  `json:"points"`
	BonusPercent         string `json:"bonus_percent"`
	CreditedPoints       int64  `json:"credited_points"`
	Cost                 string `json:"cost"`
	Date                 string `json:"date"`
	TransferredAt        string `json:"transferred_at"`
}

// RedemptionProjectedEvent is published after a redemption save commits
// and its ledger projection has been upserted or retracted.
type RedemptionProjectedEvent struct {
	RedemptionID uint64 `json:"redemption_id"`
	AccountID    uint64 `json:"account_id"`
	ProgramID    uint64 `json:"program_id"`
	PointsUsed   int64  `json:"points_used"`
	PointsCost   string `json:"points_cost"`
	Retracted    bool   `json:"retracted"`
	ProjectedAt  string `json:"projected_at"`
}
