package service

import (
	"github.com/bbuilders/actionbot/internal/model"
)

// Aggregate folds the five category fetches into per-initiative buckets.
// An item with N initiative relations is appended to all N buckets (fan-out,
// never split or dropped); an item with none lands in the Unassigned bucket.
// Pure function: no lookups, no side effects.
func Aggregate(categorized map[model.Category][]model.ActionItem) map[string]*model.InitiativeBucket {
	buckets := make(map[string]*model.InitiativeBucket)

	for _, category := range model.Categories {
		for _, item := range categorized[category] {
			ids := item.Initiatives
			if len(ids) == 0 {
				ids = []string{model.UnassignedID}
			}

			for _, id := range ids {
				bucket, ok := buckets[id]
				if !ok {
					bucket = model.NewInitiativeBucket(id)
					buckets[id] = bucket
				}
				bucket.Append(category, item)
			}
		}
	}

	return buckets
}
