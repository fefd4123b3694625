package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "github.com/bbuilders/actionbot/contracts/mq"
	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/pkg/logger"
	"github.com/bbuilders/actionbot/pkg/metrics"
	"github.com/bbuilders/actionbot/pkg/trace"
	"github.com/bbuilders/actionbot/pkg/util"
)

// Source fetches already-classified action items, one call per category.
type Source interface {
	FetchCategory(ctx context.Context, category model.Category) ([]model.ActionItem, error)
}

// RunSummary is the result of one full pipeline run.
type RunSummary struct {
	TraceID              string                 `json:"trace_id"`
	StartedAt            time.Time              `json:"started_at"`
	FinishedAt           time.Time              `json:"finished_at"`
	ItemsFetched         map[model.Category]int `json:"items_fetched"`
	EmailsSent           int                    `json:"emails_sent"`
	SendFailures         int                    `json:"send_failures"`
	HistoryWriteFailures int                    `json:"history_write_failures"`
	SkippedLeads         int                    `json:"skipped_leads"`
}

// Pipeline runs the whole reminder flow: fetch, aggregate, enrich, then one
// digest-decide-send-record pass per (initiative, lead). Initiatives and
// leads are processed sequentially on purpose: the dedup read and the dedup
// write for a tuple must observe a consistent view within one run, and
// sequential sends make read-then-write races impossible without locks.
type Pipeline struct {
	source    Source
	enricher  *Enricher
	digests   *DigestBuilder
	notifier  *Notifier
	publisher EventPublisher
	pause     time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewPipeline(
	source Source,
	enricher *Enricher,
	digests *DigestBuilder,
	notifier *Notifier,
	publisher EventPublisher,
	pause time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		source:    source,
		enricher:  enricher,
		digests:   digests,
		notifier:  notifier,
		publisher: publisher,
		pause:     pause,
		now:       time.Now,
		logger:    logger,
	}
}

// Run executes one run. Source or directory failures abort the run before
// any email goes out; a transport failure for one recipient only skips that
// recipient.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	started := p.now()
	timer := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(timer).Seconds())
	}()

	traceID := trace.FromContext(ctx)
	if traceID == "" {
		traceID = trace.GenerateTraceID()
		ctx = trace.WithContext(ctx, traceID)
	}
	log := logger.WithTrace(ctx, p.logger)

	summary := &RunSummary{
		TraceID:      traceID,
		StartedAt:    started,
		ItemsFetched: make(map[model.Category]int),
	}

	categorized := make(map[model.Category][]model.ActionItem, len(model.Categories))
	for _, category := range model.Categories {
		items, err := p.source.FetchCategory(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("source fetch failed for %s: %w", category, err)
		}
		categorized[category] = items
		summary.ItemsFetched[category] = len(items)
	}

	buckets := Aggregate(categorized)
	log.Info("Aggregated items by initiative", zap.Int("initiatives", len(buckets)))

	enriched, err := p.enricher.Enrich(ctx, buckets)
	if err != nil {
		return nil, err
	}

	today := p.now()
	for _, initiative := range enriched {
		if len(initiative.Leads) == 0 {
			if !initiative.Items.Empty() {
				log.Warn("Initiative has items but no leads, nothing to send",
					zap.String("initiative_id", initiative.ID),
					zap.String("initiative", initiative.Name),
				)
			}
			continue
		}

		for _, lead := range initiative.Leads {
			digest, err := p.digests.Build(ctx, initiative, lead, today)
			if err != nil {
				// Without a dedup check we might double-send; skip the lead
				// instead and let the next run pick them up.
				summary.SkippedLeads++
				log.Error("History read failed, skipping lead",
					zap.String("initiative_id", initiative.ID),
					zap.String("lead_id", lead.ID),
					zap.Error(err),
				)
				continue
			}

			outcome, err := p.notifier.Notify(ctx, initiative, lead, digest)
			if err != nil {
				summary.SendFailures++
				retryable, errType := util.IsRetryableError(err)
				log.Error("Send failed, continuing with next lead",
					zap.String("initiative", initiative.Name),
					zap.String("lead", lead.Name),
					zap.String("error_type", errType),
					zap.Bool("retryable", retryable),
					zap.Error(err),
				)
				p.pauseBetweenSends()
				continue
			}
			if outcome == nil {
				continue
			}

			summary.EmailsSent++
			summary.HistoryWriteFailures += outcome.HistoryWriteFailures
			p.pauseBetweenSends()
		}
	}

	summary.FinishedAt = p.now()

	if p.publisher != nil {
		payload := mqcontracts.RunFinishedPayload{
			TraceID:              traceID,
			EmailsSent:           summary.EmailsSent,
			SendFailures:         summary.SendFailures,
			HistoryWriteFailures: summary.HistoryWriteFailures,
			StartedAt:            summary.StartedAt,
			FinishedAt:           summary.FinishedAt,
		}
		if err := p.publisher.Publish(mqcontracts.RoutingKeyRunFinished, payload); err != nil {
			log.Warn("Failed to publish run summary", zap.Error(err))
		}
	}

	log.Info("Run finished",
		zap.Int("emails_sent", summary.EmailsSent),
		zap.Int("send_failures", summary.SendFailures),
		zap.Int("history_write_failures", summary.HistoryWriteFailures),
		zap.Int("skipped_leads", summary.SkippedLeads),
	)

	return summary, nil
}

// pauseBetweenSends spaces out provider calls. Politeness toward the
// provider's rate limits, not a correctness requirement.
func (p *Pipeline) pauseBetweenSends() {
	if p.pause > 0 {
		time.Sleep(p.pause)
	}
}
