package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/pkg/metrics"
)

// Statuses used by the workspace database.
const (
	StatusAssigned   = "Assigned"
	StatusDelegated  = "Delegated"
	StatusInProgress = "In Progress"
	StatusPastDue    = "Past Due"
)

var sortDueDateAscending = []map[string]any{
	{"property": propDueDate, "direction": "ascending"},
}

// FetchCategory returns all items for one urgency category, fully paginated
// and already mapped into the normalized item shape.
func (c *Client) FetchCategory(ctx context.Context, category model.Category) ([]model.ActionItem, error) {
	var (
		pages []page
		err   error
	)

	switch category {
	case model.CategoryAssigned:
		pages, err = c.queryPages(ctx, statusEquals(StatusAssigned), sortDueDateAscending, "assigned")
	case model.CategoryDueTomorrow:
		pages, err = c.fetchDueTomorrow(ctx)
	case model.CategoryPastDue:
		pages, err = c.fetchPastDue(ctx)
	case model.CategoryTwoDaysPastDue:
		pages, err = c.fetchTwoDaysPastDue(ctx)
	case model.CategoryFourDaysPastDue:
		pages, err = c.fetchFourDaysPastDue(ctx)
	default:
		return nil, fmt.Errorf("unknown category: %s", category)
	}
	if err != nil {
		return nil, err
	}

	items := make([]model.ActionItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, toActionItem(p))
	}

	metrics.IncrementItemsFetched(string(category), len(items))
	return items, nil
}

// fetchPastDue unions items already labeled Past Due with open items whose
// due date slipped by without a status change. The latter have their status
// corrected at the source before inclusion, so the label stays truthful.
func (c *Client) fetchPastDue(ctx context.Context) ([]page, error) {
	pages, err := c.queryPages(ctx, statusEquals(StatusPastDue), sortDueDateAscending, "past due status")
	if err != nil {
		return nil, err
	}

	today := c.today()
	filter := map[string]any{
		"and": []map[string]any{
			{"property": propDueDate, "date": map[string]any{"before": today}},
			openStatusFilter(),
		},
	}

	stale, err := c.queryPages(ctx, filter, sortDueDateAscending,
		"assigned, delegated, or in progress status and past due date")
	if err != nil {
		return nil, err
	}

	for _, p := range stale {
		c.logger.Info("Marking overdue item as past due", zap.String("page_id", p.ID))
		updated, err := c.updateStatus(ctx, p.ID, StatusPastDue)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *updated)
	}

	return pages, nil
}

func (c *Client) fetchDueTomorrow(ctx context.Context) ([]page, error) {
	filter := map[string]any{
		"and": []map[string]any{
			{"property": propDueDate, "date": map[string]any{"equals": c.dayOffset(1)}},
			openStatusFilter(),
		},
	}
	return c.queryPages(ctx, filter, sortDueDateAscending, "due tomorrow")
}

func (c *Client) fetchTwoDaysPastDue(ctx context.Context) ([]page, error) {
	filter := map[string]any{
		"and": []map[string]any{
			{"property": propStatus, "status": map[string]any{"equals": StatusPastDue}},
			{"property": propDueDate, "date": map[string]any{"equals": c.dayOffset(-2)}},
		},
	}
	return c.queryPages(ctx, filter, sortDueDateAscending, "two days past due")
}

func (c *Client) fetchFourDaysPastDue(ctx context.Context) ([]page, error) {
	filter := map[string]any{
		"and": []map[string]any{
			{"property": propStatus, "status": map[string]any{"equals": StatusPastDue}},
			{"property": propDueDate, "date": map[string]any{"on_or_before": c.dayOffset(-4)}},
		},
	}
	return c.queryPages(ctx, filter, sortDueDateAscending, "four or more days past due")
}

func statusEquals(status string) map[string]any {
	return map[string]any{
		"property": propStatus,
		"status":   map[string]any{"equals": status},
	}
}

// openStatusFilter matches the statuses that still count as open work.
func openStatusFilter() map[string]any {
	return map[string]any{
		"or": []map[string]any{
			statusEquals(StatusAssigned),
			statusEquals(StatusDelegated),
			statusEquals(StatusInProgress),
		},
	}
}

// today returns the current calendar day in the reference timezone.
func (c *Client) today() string {
	return c.now().In(c.loc).Format(model.DueDateLayout)
}

// dayOffset returns today+offset days as a calendar date in the reference
// timezone.
func (c *Client) dayOffset(offset int) string {
	return c.now().In(c.loc).AddDate(0, 0, offset).Format(model.DueDateLayout)
}
