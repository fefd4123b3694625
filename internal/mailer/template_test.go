package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbuilders/actionbot/internal/model"
)

func renderSetup(t *testing.T) (*Renderer, time.Time, model.Lead) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	lead := model.Lead{ID: "lead-1", Name: "Jordan Smith", Email: "jordan@businessbuilders.org"}
	return NewRenderer(loc), now, lead
}

func digestItem(pageID, title, due string) model.ActionItem {
	return model.ActionItem{
		PageID:  pageID,
		Title:   model.FieldOf(title),
		Status:  model.FieldOf("Past Due"),
		DueDate: model.FieldOf(due),
		URL:     "https://workspace.example/" + pageID,
	}
}

func TestRendererRender(t *testing.T) {
	renderer, now, lead := renderSetup(t)

	t.Run("digest greets the lead by first name", func(t *testing.T) {
		digest := model.NewCategoryItems()
		digest[model.CategoryAssigned] = []model.ActionItem{digestItem("p1", "Draft budget", "2026-03-15")}
		decision := &model.EmailDecision{
			Tier:    model.TierDigest,
			Include: []model.Category{model.CategoryAssigned, model.CategoryDueTomorrow, model.CategoryPastDue},
		}

		html, text, err := renderer.Render(decision, digest, lead, "Marketing", now)
		require.NoError(t, err)

		assert.Contains(t, html, "Hi Jordan,")
		assert.Contains(t, html, "Draft budget")
		assert.Contains(t, html, "Newly Assigned")
		assert.Contains(t, html, "https://workspace.example/p1")
		assert.Contains(t, html, "1 action item that needs")
		assert.Contains(t, text, "Draft budget")
	})

	t.Run("critical tier greets the leadership team", func(t *testing.T) {
		digest := model.NewCategoryItems()
		digest[model.CategoryFourDaysPastDue] = []model.ActionItem{digestItem("p1", "File taxes", "2026-03-04")}
		decision := &model.EmailDecision{
			Tier:    model.TierFourDaysPastDue,
			Include: []model.Category{model.CategoryFourDaysPastDue},
		}

		html, _, err := renderer.Render(decision, digest, lead, "Marketing", now)
		require.NoError(t, err)

		assert.Contains(t, html, "Hi Leadership Team,")
		assert.Contains(t, html, "4+ Days Past Due")
		assert.Contains(t, html, "(6 days overdue)")
	})

	t.Run("sections render most urgent first", func(t *testing.T) {
		digest := model.NewCategoryItems()
		digest[model.CategoryPastDue] = []model.ActionItem{digestItem("p1", "Older task", "2026-03-09")}
		digest[model.CategoryTwoDaysPastDue] = []model.ActionItem{digestItem("p2", "Urgent task", "2026-03-08")}
		decision := &model.EmailDecision{
			Tier:    model.TierTwoDaysPastDue,
			Include: []model.Category{model.CategoryTwoDaysPastDue, model.CategoryPastDue},
		}

		html, _, err := renderer.Render(decision, digest, lead, "Marketing", now)
		require.NoError(t, err)

		urgent := strings.Index(html, "Urgent task")
		older := strings.Index(html, "Older task")
		require.GreaterOrEqual(t, urgent, 0)
		require.GreaterOrEqual(t, older, 0)
		assert.Less(t, urgent, older)
		assert.Contains(t, html, "2 action items that")
	})

	t.Run("empty included categories produce no section", func(t *testing.T) {
		digest := model.NewCategoryItems()
		digest[model.CategoryPastDue] = []model.ActionItem{digestItem("p1", "Only task", "2026-03-09")}
		decision := &model.EmailDecision{
			Tier:    model.TierDigest,
			Include: []model.Category{model.CategoryAssigned, model.CategoryDueTomorrow, model.CategoryPastDue},
		}

		html, _, err := renderer.Render(decision, digest, lead, "Marketing", now)
		require.NoError(t, err)

		assert.NotContains(t, html, "Newly Assigned")
		assert.NotContains(t, html, "Due Tomorrow")
		assert.Contains(t, html, "Past Due")
	})

	t.Run("html in source fields is escaped", func(t *testing.T) {
		digest := model.NewCategoryItems()
		digest[model.CategoryAssigned] = []model.ActionItem{
			digestItem("p1", `<script>alert("x")</script>`, "2026-03-15"),
		}
		decision := &model.EmailDecision{
			Tier:    model.TierDigest,
			Include: []model.Category{model.CategoryAssigned},
		}

		html, _, err := renderer.Render(decision, digest, lead, "Marketing", now)
		require.NoError(t, err)

		assert.NotContains(t, html, "<script>")
	})

	t.Run("placeholder due date renders as-is", func(t *testing.T) {
		item := digestItem("p1", "No date", "")
		item.DueDate = model.FieldDefault(model.PlaceholderValue)
		digest := model.NewCategoryItems()
		digest[model.CategoryAssigned] = []model.ActionItem{item}
		decision := &model.EmailDecision{
			Tier:    model.TierDigest,
			Include: []model.Category{model.CategoryAssigned},
		}

		html, _, err := renderer.Render(decision, digest, lead, "Marketing", now)
		require.NoError(t, err)
		assert.Contains(t, html, "None")
	})
}
