package models

import "time"

// CategoryEventType names a change pushed to admin clients.
type CategoryEventType string

const (
	CategoryCreated CategoryEventType = "category.created"
	CategoryUpdated CategoryEventType = "category.updated"
	CategoryDeleted CategoryEventType = "category.deleted"
)

// CategoryEvent is broadcast after a tree mutation completes.
type CategoryEvent struct {
	Type       CategoryEventType `json:"type"`
	CategoryID string            `json:"categoryId"`
	Name       string            `json:"name,omitempty"`
	Path       []string          `json:"path,omitempty"`
	Version    int64             `json:"version,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
