package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "github.com/bbuilders/actionbot/contracts/mq"
	"github.com/bbuilders/actionbot/internal/mailer"
	"github.com/bbuilders/actionbot/internal/model"
)

type fakeTransport struct {
	sent    []mailer.Message
	sendErr error
}

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, msg)
	return "msg-123", nil
}

func (f *fakeTransport) Provider() string { return "resend" }

type fakePublisher struct {
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	routingKey string
	payload    any
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}

func newTestNotifier(t *testing.T, transport *fakeTransport, history *fakeHistory, publisher *fakePublisher) *Notifier {
	t.Helper()
	loc := nyLocation(t)
	var pub EventPublisher
	if publisher != nil {
		pub = publisher
	}
	return NewNotifier(
		NewSelector(testBook),
		mailer.NewRenderer(loc),
		transport,
		history,
		nil,
		pub,
		loc,
		zap.NewNop(),
	)
}

func TestNotifierNotify(t *testing.T) {
	lead := model.Lead{ID: "lead-1", Name: "Jordan Smith", Email: "jordan@businessbuilders.org"}
	initiative := model.EnrichedInitiative{ID: "init-1", Name: "Marketing", Leads: []model.Lead{lead}}

	t.Run("empty digest sends nothing and writes nothing", func(t *testing.T) {
		transport := &fakeTransport{}
		history := &fakeHistory{}
		notifier := newTestNotifier(t, transport, history, nil)

		outcome, err := notifier.Notify(context.Background(), initiative, lead, model.NewCategoryItems())
		require.NoError(t, err)
		assert.Nil(t, outcome)
		assert.Empty(t, transport.sent)
		assert.Empty(t, history.records)
	})

	t.Run("records every item in every included category", func(t *testing.T) {
		transport := &fakeTransport{}
		history := &fakeHistory{}
		notifier := newTestNotifier(t, transport, history, nil)

		digest := digestWith(map[model.Category]int{
			model.CategoryTwoDaysPastDue: 2,
			model.CategoryPastDue:        1,
			model.CategoryAssigned:       3,
		})

		outcome, err := notifier.Notify(context.Background(), initiative, lead, digest)
		require.NoError(t, err)
		require.NotNil(t, outcome)

		assert.Equal(t, model.TierTwoDaysPastDue, outcome.Tier)
		assert.Equal(t, "msg-123", outcome.MessageID)
		// Ride-along past-due item is recorded; assigned items are not part of
		// this tier and stay eligible for a later digest.
		assert.Equal(t, 3, outcome.ItemCount)
		require.Len(t, history.records, 3)
		for _, rec := range history.records {
			assert.Equal(t, "init-1", rec.InitiativeID)
			assert.Equal(t, "lead-1", rec.RecipientID)
			assert.Equal(t, lead.Email, rec.RecipientEmail)
			assert.Equal(t, "resend", rec.ProviderName)
			assert.Equal(t, "msg-123", rec.ProviderMessageID)
			assert.Equal(t, model.DeliveryStatusSent, rec.Status)
			assert.NotEqual(t, string(model.CategoryAssigned), rec.Category)
		}
	})

	t.Run("transport failure leaves history untouched", func(t *testing.T) {
		transport := &fakeTransport{sendErr: errors.New("provider unavailable")}
		history := &fakeHistory{}
		publisher := &fakePublisher{}
		notifier := newTestNotifier(t, transport, history, publisher)

		digest := digestWith(map[model.Category]int{model.CategoryPastDue: 1})

		outcome, err := notifier.Notify(context.Background(), initiative, lead, digest)
		assert.Error(t, err)
		assert.Nil(t, outcome)
		assert.Empty(t, history.records)

		require.Len(t, publisher.events, 1)
		assert.Equal(t, mqcontracts.RoutingKeyEmailFailed, publisher.events[0].routingKey)
	})

	t.Run("history write failure is counted but does not fail the send", func(t *testing.T) {
		transport := &fakeTransport{}
		history := &fakeHistory{err: errors.New("deadlock detected")}
		notifier := newTestNotifier(t, transport, history, nil)

		digest := digestWith(map[model.Category]int{model.CategoryAssigned: 2})

		outcome, err := notifier.Notify(context.Background(), initiative, lead, digest)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.Equal(t, 2, outcome.HistoryWriteFailures)
		assert.Equal(t, 0, outcome.ItemCount)
		assert.Len(t, transport.sent, 1)
	})

	t.Run("critical tier goes to admins, body is sent as HTML and text", func(t *testing.T) {
		transport := &fakeTransport{}
		history := &fakeHistory{}
		publisher := &fakePublisher{}
		notifier := newTestNotifier(t, transport, history, publisher)

		digest := digestWith(map[model.Category]int{model.CategoryFourDaysPastDue: 1})

		outcome, err := notifier.Notify(context.Background(), initiative, lead, digest)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.Equal(t, model.TierFourDaysPastDue, outcome.Tier)

		require.Len(t, transport.sent, 1)
		msg := transport.sent[0]
		assert.Equal(t, testBook.Admins, msg.To)
		assert.Equal(t, SubjectCritical, msg.Subject)
		assert.Contains(t, msg.HTML, "Hi Leadership Team")
		assert.NotEmpty(t, msg.Text)

		require.Len(t, publisher.events, 1)
		assert.Equal(t, mqcontracts.RoutingKeyEmailSent, publisher.events[0].routingKey)
		sent, ok := publisher.events[0].payload.(mqcontracts.EmailSentPayload)
		require.True(t, ok)
		assert.Equal(t, 1, sent.ItemCount)
	})

	t.Run("publish failure never blocks the send", func(t *testing.T) {
		transport := &fakeTransport{}
		history := &fakeHistory{}
		publisher := &fakePublisher{err: errors.New("channel closed")}
		notifier := newTestNotifier(t, transport, history, publisher)

		digest := digestWith(map[model.Category]int{model.CategoryAssigned: 1})

		outcome, err := notifier.Notify(context.Background(), initiative, lead, digest)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.Len(t, history.records, 1)
	})
}

func TestNotifierClockInjection(t *testing.T) {
	loc := nyLocation(t)
	transport := &fakeTransport{}
	history := &fakeHistory{}
	notifier := newTestNotifier(t, transport, history, nil)

	fixed := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	notifier.now = func() time.Time { return fixed }

	digest := digestWith(map[model.Category]int{model.CategoryAssigned: 1})
	_, err := notifier.Notify(context.Background(), model.EnrichedInitiative{ID: "init-1", Name: "Marketing"},
		model.Lead{ID: "lead-1", Name: "Jordan", Email: "jordan@businessbuilders.org"}, digest)
	require.NoError(t, err)

	require.Len(t, history.records, 1)
	assert.True(t, history.records[0].RunDate.Equal(fixed))
}
