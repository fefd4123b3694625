package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	mqcontracts "github.com/bbuilders/actionbot/contracts/mq"
	"github.com/bbuilders/actionbot/internal/mailer"
	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/pkg/metrics"
	"github.com/bbuilders/actionbot/pkg/util"
)

// Transport delivers rendered emails through the provider.
type Transport interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
	Provider() string
}

// HistoryWriter appends send history. Must fail loudly: a silently dropped
// write causes duplicate notifications on the next run.
type HistoryWriter interface {
	Append(ctx context.Context, rec model.SentEmailRecord) error
}

// EventPublisher publishes send outcomes to the event bus.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// SendOutcome reports what one Notify call did.
type SendOutcome struct {
	Tier                 model.Tier
	MessageID            string
	ItemCount            int
	HistoryWriteFailures int
}

// Notifier renders the selected tier's email, sends it, and records every
// included item as sent.
type Notifier struct {
	selector  *Selector
	renderer  *mailer.Renderer
	transport Transport
	history   HistoryWriter
	deduper   *util.DayDeduper
	publisher EventPublisher
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewNotifier wires the notifier. publisher may be nil when no broker is
// configured; events are then skipped, never blocking a send.
func NewNotifier(
	selector *Selector,
	renderer *mailer.Renderer,
	transport Transport,
	history HistoryWriter,
	deduper *util.DayDeduper,
	publisher EventPublisher,
	loc *time.Location,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		selector:  selector,
		renderer:  renderer,
		transport: transport,
		history:   history,
		deduper:   deduper,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Notify runs the decision-render-send-record sequence for one (initiative,
// lead) digest. A nil outcome with nil error means no email was warranted.
// A transport error is returned for the caller to log and move on; no
// history is written in that case, so the next scheduled run retries
// naturally.
func (n *Notifier) Notify(ctx context.Context, initiative model.EnrichedInitiative, lead model.Lead, digest model.CategoryItems) (*SendOutcome, error) {
	decision := n.selector.Select(digest, lead.Email)
	if decision == nil {
		return nil, nil
	}

	now := n.now()
	html, text, err := n.renderer.Render(decision, digest, lead, initiative.Name, now)
	if err != nil {
		return nil, err
	}

	msg := mailer.Message{
		To:      decision.To,
		CC:      decision.CC,
		Subject: decision.Subject,
		HTML:    html,
		Text:    text,
	}

	messageID, err := n.transport.Send(ctx, msg)
	if err != nil {
		metrics.IncrementEmailSendFailures(string(decision.Tier))
		n.publish(mqcontracts.RoutingKeyEmailFailed, mqcontracts.EmailFailedPayload{
			InitiativeID:   initiative.ID,
			InitiativeName: initiative.Name,
			RecipientEmail: decision.To[0],
			Tier:           string(decision.Tier),
			ItemCount:      decision.ItemCount(digest),
			Error:          err.Error(),
			FailedAt:       now,
		})
		return nil, err
	}

	metrics.IncrementEmailsSent(string(decision.Tier))

	outcome := &SendOutcome{
		Tier:      decision.Tier,
		MessageID: messageID,
	}
	day := now.In(n.loc).Format(DayLayout)

	// Every item in every included category is marked sent, including the
	// ride-along categories, so none of them triggers a second email later.
	for _, category := range decision.Include {
		for _, item := range digest[category] {
			rec := model.SentEmailRecord{
				PageID:            item.PageID,
				InitiativeID:      initiative.ID,
				RecipientID:       lead.ID,
				RecipientEmail:    decision.To[0],
				OriginalDueDate:   item.DueDate.String(),
				CurrentDueDate:    item.DueDate.String(),
				Category:          string(category),
				RunDate:           now,
				ProviderName:      n.transport.Provider(),
				ProviderMessageID: messageID,
				Status:            model.DeliveryStatusSent,
			}
			if err := n.history.Append(ctx, rec); err != nil {
				// The email went out but the row did not land: the next run
				// may notify again. Surface it and keep recording the rest.
				outcome.HistoryWriteFailures++
				metrics.HistoryWriteFailures.Inc()
				n.logger.Error("History write failed after successful send",
					zap.String("page_id", item.PageID),
					zap.String("initiative_id", initiative.ID),
					zap.String("recipient_id", lead.ID),
					zap.String("category", string(category)),
					zap.Error(err),
				)
				continue
			}
			outcome.ItemCount++
			n.deduper.Mark(ctx, util.SentKey(day, item.PageID, initiative.ID, lead.ID, string(category)))
		}
	}

	n.publish(mqcontracts.RoutingKeyEmailSent, mqcontracts.EmailSentPayload{
		InitiativeID:      initiative.ID,
		InitiativeName:    initiative.Name,
		RecipientEmail:    decision.To[0],
		Tier:              string(decision.Tier),
		ItemCount:         outcome.ItemCount,
		ProviderName:      n.transport.Provider(),
		ProviderMessageID: messageID,
		SentAt:            now,
	})

	n.logger.Info("Notification sent",
		zap.String("initiative", initiative.Name),
		zap.String("lead", lead.Name),
		zap.String("tier", string(decision.Tier)),
		zap.Int("items", outcome.ItemCount),
		zap.String("message_id", messageID),
	)

	return outcome, nil
}

func (n *Notifier) publish(routingKey string, payload any) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(routingKey, payload); err != nil {
		n.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
