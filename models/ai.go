package models

import (
	"time"
)

// AiNpc is a non-player character that can chat through an AI provider
type AiNpc struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Role        string    `db:"role" json:"role"`
	Personality string    `db:"personality" json:"personality"`
	Knowledge   string    `db:"knowledge" json:"knowledge,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// AiGlobalConfig selects the provider used for NPC chat
type AiGlobalConfig struct {
	ID          int64    `db:"id"`
	Provider    string   `db:"provider"`
	APIKey      string   `db:"api_key"`
	ModelName   string   `db:"model_name"`
	Temperature *float64 `db:"temperature"`
	BaseURL     string   `db:"base_url"`
	IsActive    bool     `db:"is_active"`
}

// AiUsage is a per-user per-day chat counter
type AiUsage struct {
	UserID string    `db:"user_id"`
	Date   time.Time `db:"date"`
	Count  int       `db:"count"`
}

// ChatUsage is the usage summary returned alongside a chat reply
type ChatUsage struct {
	Current   int `json:"current"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// ChatReply is the result of a chat turn with an NPC
type ChatReply struct {
	Reply     string     `json:"reply"`
	Usage     *ChatUsage `json:"usage,omitempty"`
	Simulated bool       `json:"simulated,omitempty"`
	Error     string     `json:"error,omitempty"`
}
