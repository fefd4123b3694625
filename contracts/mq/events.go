package mq

import "time"

const (
	RoutingKeyEmailSent   = "email.sent"
	RoutingKeyEmailFailed = "email.failed"
	RoutingKeyRunFinished = "run.finished"
)

// EmailSentPayload is published after the transport accepts a reminder email
// and its history rows are persisted.
type EmailSentPayload struct {
	InitiativeID      string    `json:"initiative_id"`
	InitiativeName    string    `json:"initiative_name"`
	RecipientEmail    string    `json:"recipient_email"`
	Tier              string    `json:"tier"`
	ItemCount         int       `json:"item_count"`
	ProviderName      string    `json:"provider_name"`
	ProviderMessageID string    `json:"provider_message_id"`
	SentAt            time.Time `json:"sent_at"`
}

// EmailFailedPayload is published when the transport rejects a reminder email.
// The run continues; the item stays eligible for the next scheduled run.
type EmailFailedPayload struct {
	InitiativeID   string    `json:"initiative_id"`
	InitiativeName string    `json:"initiative_name"`
	RecipientEmail string    `json:"recipient_email"`
	Tier           string    `json:"tier"`
	ItemCount      int       `json:"item_count"`
	Error          string    `json:"error"`
	FailedAt       time.Time `json:"failed_at"`
}

// RunFinishedPayload summarizes one completed pipeline run.
type RunFinishedPayload struct {
	TraceID              string    `json:"trace_id"`
	EmailsSent           int       `json:"emails_sent"`
	SendFailures         int       `json:"send_failures"`
	HistoryWriteFailures int       `json:"history_write_failures"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
}
