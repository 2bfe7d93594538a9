package models

import (
	"time"
)

// PointsType classifies a points history entry
type PointsType string

const (
	PointsTypeEarn   PointsType = "EARN"
	PointsTypeSpend  PointsType = "SPEND"
	PointsTypeRefund PointsType = "REFUND"
)

// Reasons recorded on history entries written by this service
const (
	ReasonWorkstationBind   = "workstation_bind"
	ReasonWorkstationRefund = "workstation_reclaim_refund"
	ReasonAdminAdjustment   = "admin_adjustment"
)

// PointsHistoryEntry is an immutable record of a balance delta
type PointsHistoryEntry struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"userId"`
	Amount    int64          `db:"amount" json:"amount"`
	Reason    string         `db:"reason" json:"reason"`
	Type      PointsType     `db:"type" json:"type"`
	Balance   int64          `db:"balance" json:"balance"`
	Metadata  map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// PointsHistoryPage is one page of a user's history, newest first
type PointsHistoryPage struct {
	History    []*PointsHistoryEntry `json:"history"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"totalPages"`
	HasMore    bool                  `json:"hasMore"`
}
