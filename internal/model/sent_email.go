package model

import "time"

// Delivery statuses stored with a history row.
const (
	DeliveryStatusSent = "sent"
)

// SentEmailRecord is one persisted row of send history, the system's only
// durable state. A new notification for the (PageID, InitiativeID,
// RecipientID, Category) tuple is allowed only when no existing row has a
// RunDate on today's America/New_York calendar day.
type SentEmailRecord struct {
	ID                int64
	PageID            string
	InitiativeID      string
	RecipientID       string
	RecipientEmail    string
	OriginalDueDate   string
	CurrentDueDate    string
	Category          string
	RunDate           time.Time
	ProviderName      string
	ProviderMessageID string
	Status            string
}
