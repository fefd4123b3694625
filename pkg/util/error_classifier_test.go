package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
		wantType      string
	}{
		{"nil", nil, false, ""},
		{"json syntax", &json.SyntaxError{}, false, "json_decode_error"},
		{"no rows", pgx.ErrNoRows, false, "row_not_found"},
		{"duplicate key", errors.New(`duplicate key value violates unique constraint "sent_emails_pkey"`), false, "duplicate_key"},
		{"db connection", errors.New("failed to connect: connection refused"), true, "db_connection_error"},
		{"network timeout", timeoutError{}, true, "network_timeout"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"provider 503", errors.New("email provider returned status 503"), true, "provider_unavailable"},
		{"provider 401", errors.New("email provider returned status 401"), false, "provider_rejected"},
		{"unknown", errors.New("something odd"), false, "unknown_error"},
		{"wrapped provider error", fmt.Errorf("send failed: %w", errors.New("workspace API returned status 500")), true, "provider_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, errType := IsRetryableError(tt.err)
			assert.Equal(t, tt.wantRetryable, retryable)
			assert.Equal(t, tt.wantType, errType)
		})
	}
}

func TestSentKey(t *testing.T) {
	key := SentKey("2026-03-10", "p1", "init-1", "lead-1", "pastDue")
	assert.Equal(t, "sent:2026-03-10:p1:init-1:lead-1:pastDue", key)
}

func TestDayDeduperNilSafety(t *testing.T) {
	var d *DayDeduper
	assert.False(t, d.Seen(context.Background(), "sent:any"))
	d.Mark(context.Background(), "sent:any")

	empty := NewDayDeduper(nil, 0)
	assert.False(t, empty.Seen(context.Background(), "sent:any"))
	empty.Mark(context.Background(), "sent:any")
}
