package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/internal/source"
)

// Directory resolves initiative and lead identifiers against the workspace
// directory.
type Directory interface {
	ResolveInitiative(ctx context.Context, id string) (source.InitiativeInfo, error)
	ResolveLead(ctx context.Context, id string) (model.Lead, error)
}

// Enricher attaches display names and lead lists to initiative buckets.
type Enricher struct {
	dir    Directory
	loc    *time.Location
	logger *zap.Logger
}

func NewEnricher(dir Directory, loc *time.Location, logger *zap.Logger) *Enricher {
	return &Enricher{
		dir:    dir,
		loc:    loc,
		logger: logger,
	}
}

// Enrich resolves every bucket's metadata. The Unassigned sentinel
// short-circuits without a lookup; any other lookup failure aborts the run,
// since partial enrichment could mis-route escalation emails.
func (e *Enricher) Enrich(ctx context.Context, buckets map[string]*model.InitiativeBucket) ([]model.EnrichedInitiative, error) {
	ids := make([]string, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	enriched := make([]model.EnrichedInitiative, 0, len(buckets))
	for _, id := range ids {
		bucket := buckets[id]
		sortBucketByDueDate(bucket, e.loc)

		if id == model.UnassignedID {
			enriched = append(enriched, model.EnrichedInitiative{
				ID:    id,
				Name:  model.UnassignedName,
				Items: bucket.Items,
			})
			continue
		}

		info, err := e.dir.ResolveInitiative(ctx, id)
		if err != nil {
			return nil, err
		}

		leads := make([]model.Lead, 0, len(info.LeadIDs))
		for _, leadID := range info.LeadIDs {
			lead, err := e.dir.ResolveLead(ctx, leadID)
			if err != nil {
				return nil, err
			}
			leads = append(leads, lead)
		}

		e.logger.Info("Enriched initiative",
			zap.String("initiative_id", id),
			zap.String("initiative", info.Name),
			zap.Int("leads", len(leads)),
		)

		enriched = append(enriched, model.EnrichedInitiative{
			ID:    id,
			Name:  info.Name,
			Leads: leads,
			Items: bucket.Items,
		})
	}

	return enriched, nil
}

// sortBucketByDueDate re-sorts each category sequence date-ascending. The
// source already sorts its results; this keeps the guarantee when an item
// arrives through the past-due status sweep out of order. Items without a
// usable due date sort last, preserving their relative order.
func sortBucketByDueDate(bucket *model.InitiativeBucket, loc *time.Location) {
	for _, category := range model.Categories {
		items := bucket.Items[category]
		sort.SliceStable(items, func(i, j int) bool {
			di, iok := items[i].DueTime(loc)
			dj, jok := items[j].DueTime(loc)
			if !iok {
				return false
			}
			if !jok {
				return true
			}
			return di.Before(dj)
		})
	}
}
