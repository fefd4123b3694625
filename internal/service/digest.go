package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/pkg/metrics"
	"github.com/bbuilders/actionbot/pkg/util"
)

// HistoryReader reads send history for the dedup check.
type HistoryReader interface {
	QueryHistory(ctx context.Context, pageID, initiativeID, recipientID string) ([]model.SentEmailRecord, error)
}

// DayLayout formats a reference-timezone calendar day for dedup comparison.
const DayLayout = "2006-01-02"

// DigestBuilder filters an initiative's items down to the set not yet
// notified today for one lead. The guarantee is at most one send per
// (item, initiative, recipient, category) per America/New_York calendar day,
// not "ever": rows from other days never exclude an item.
type DigestBuilder struct {
	history HistoryReader
	deduper *util.DayDeduper
	loc     *time.Location
	logger  *zap.Logger
}

// NewDigestBuilder wires the builder. deduper may be nil; it is a best-effort
// cache and the history store stays authoritative.
func NewDigestBuilder(history HistoryReader, deduper *util.DayDeduper, loc *time.Location, logger *zap.Logger) *DigestBuilder {
	return &DigestBuilder{
		history: history,
		deduper: deduper,
		loc:     loc,
		logger:  logger,
	}
}

// Build returns the per-(initiative, lead) digest for today. Read-only:
// history rows are written by the notifier after a successful send.
func (b *DigestBuilder) Build(ctx context.Context, enriched model.EnrichedInitiative, lead model.Lead, today time.Time) (model.CategoryItems, error) {
	day := today.In(b.loc).Format(DayLayout)
	digest := model.NewCategoryItems()

	for _, category := range model.Categories {
		for _, item := range enriched.Items[category] {
			sent, err := b.sentToday(ctx, item.PageID, enriched.ID, lead.ID, category, day)
			if err != nil {
				return nil, err
			}
			if sent {
				metrics.IncrementDedupSkips(string(category))
				b.logger.Debug("Skipping already-notified item",
					zap.String("page_id", item.PageID),
					zap.String("initiative_id", enriched.ID),
					zap.String("recipient_id", lead.ID),
					zap.String("category", string(category)),
				)
				continue
			}
			digest[category] = append(digest[category], item)
		}
	}

	return digest, nil
}

func (b *DigestBuilder) sentToday(ctx context.Context, pageID, initiativeID, recipientID string, category model.Category, day string) (bool, error) {
	key := util.SentKey(day, pageID, initiativeID, recipientID, string(category))
	if b.deduper.Seen(ctx, key) {
		return true, nil
	}

	records, err := b.history.QueryHistory(ctx, pageID, initiativeID, recipientID)
	if err != nil {
		return false, err
	}

	for _, rec := range records {
		if rec.Category != string(category) {
			continue
		}
		if rec.RunDate.In(b.loc).Format(DayLayout) == day {
			return true, nil
		}
	}
	return false, nil
}
