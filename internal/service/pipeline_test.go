package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/mailer"
	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/internal/source"
)

type fakeSource struct {
	items map[model.Category][]model.ActionItem
	err   error
}

func (f *fakeSource) FetchCategory(_ context.Context, category model.Category) ([]model.ActionItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items[category], nil
}

type fakeDirectory struct {
	initiatives map[string]source.InitiativeInfo
	leads       map[string]model.Lead
	err         error
}

func (f *fakeDirectory) ResolveInitiative(_ context.Context, id string) (source.InitiativeInfo, error) {
	if f.err != nil {
		return source.InitiativeInfo{}, f.err
	}
	info, ok := f.initiatives[id]
	if !ok {
		return source.InitiativeInfo{}, errors.New("initiative not found: " + id)
	}
	return info, nil
}

func (f *fakeDirectory) ResolveLead(_ context.Context, id string) (model.Lead, error) {
	if f.err != nil {
		return model.Lead{}, f.err
	}
	lead, ok := f.leads[id]
	if !ok {
		return model.Lead{}, errors.New("lead not found: " + id)
	}
	return lead, nil
}

func newTestPipeline(t *testing.T, src *fakeSource, dir *fakeDirectory, transport *fakeTransport, history *fakeHistory) *Pipeline {
	t.Helper()
	loc := nyLocation(t)
	log := zap.NewNop()

	notifier := NewNotifier(NewSelector(testBook), mailer.NewRenderer(loc), transport, history, nil, nil, loc, log)
	digests := NewDigestBuilder(history, nil, loc, log)
	enricher := NewEnricher(dir, loc, log)

	return NewPipeline(src, enricher, digests, notifier, nil, 0, log)
}

func standardDirectory() *fakeDirectory {
	return &fakeDirectory{
		initiatives: map[string]source.InitiativeInfo{
			"init-1": {Name: "Marketing", LeadIDs: []string{"lead-1"}},
			"init-2": {Name: "Sales", LeadIDs: []string{"lead-2"}},
		},
		leads: map[string]model.Lead{
			"lead-1": {ID: "lead-1", Name: "Jordan Smith", Email: "jordan@businessbuilders.org"},
			"lead-2": {ID: "lead-2", Name: "Sam Lee", Email: "sam@businessbuilders.org"},
		},
	}
}

func TestPipelineRun(t *testing.T) {
	t.Run("one email per lead with pending items", func(t *testing.T) {
		src := &fakeSource{items: map[model.Category][]model.ActionItem{
			model.CategoryAssigned: {item("p1", "init-1"), item("p2", "init-2")},
		}}
		transport := &fakeTransport{}
		history := &fakeHistory{}
		pipeline := newTestPipeline(t, src, standardDirectory(), transport, history)

		summary, err := pipeline.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, summary.EmailsSent)
		assert.Zero(t, summary.SendFailures)
		assert.Equal(t, 2, summary.ItemsFetched[model.CategoryAssigned])
		assert.Len(t, transport.sent, 2)
		assert.NotEmpty(t, summary.TraceID)
	})

	t.Run("second run on the same day sends nothing", func(t *testing.T) {
		src := &fakeSource{items: map[model.Category][]model.ActionItem{
			model.CategoryPastDue: {item("p1", "init-1")},
		}}
		transport := &fakeTransport{}
		history := &fakeHistory{}
		pipeline := newTestPipeline(t, src, standardDirectory(), transport, history)

		first, err := pipeline.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, first.EmailsSent)

		second, err := pipeline.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, second.EmailsSent)
		assert.Len(t, transport.sent, 1)
	})

	t.Run("source failure aborts before any send", func(t *testing.T) {
		src := &fakeSource{err: errors.New("status 503")}
		transport := &fakeTransport{}
		pipeline := newTestPipeline(t, src, standardDirectory(), transport, &fakeHistory{})

		_, err := pipeline.Run(context.Background())
		assert.Error(t, err)
		assert.Empty(t, transport.sent)
	})

	t.Run("directory failure aborts the run", func(t *testing.T) {
		src := &fakeSource{items: map[model.Category][]model.ActionItem{
			model.CategoryAssigned: {item("p1", "init-1")},
		}}
		dir := standardDirectory()
		dir.err = errors.New("status 500")
		transport := &fakeTransport{}
		pipeline := newTestPipeline(t, src, dir, transport, &fakeHistory{})

		_, err := pipeline.Run(context.Background())
		assert.Error(t, err)
		assert.Empty(t, transport.sent)
	})

	t.Run("send failure for one lead does not stop the others", func(t *testing.T) {
		src := &fakeSource{items: map[model.Category][]model.ActionItem{
			model.CategoryAssigned: {item("p1", "init-1"), item("p2", "init-2")},
		}}
		transport := &flakyTransport{failFirst: 1}
		history := &fakeHistory{}
		loc := nyLocation(t)
		log := zap.NewNop()
		notifier := NewNotifier(NewSelector(testBook), mailer.NewRenderer(loc), transport, history, nil, nil, loc, log)
		pipeline := NewPipeline(src, NewEnricher(standardDirectory(), loc, log),
			NewDigestBuilder(history, nil, loc, log), notifier, nil, 0, log)

		summary, err := pipeline.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, summary.SendFailures)
		assert.Equal(t, 1, summary.EmailsSent)
		// The failed lead's item was never recorded, so the next run retries it.
		for _, rec := range history.records {
			assert.NotEqual(t, "p1", rec.PageID)
		}
	})

	t.Run("unassigned items never produce an email", func(t *testing.T) {
		src := &fakeSource{items: map[model.Category][]model.ActionItem{
			model.CategoryPastDue: {item("p1")},
		}}
		transport := &fakeTransport{}
		pipeline := newTestPipeline(t, src, standardDirectory(), transport, &fakeHistory{})

		summary, err := pipeline.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, summary.EmailsSent)
		assert.Empty(t, transport.sent)
	})

	t.Run("empty fetch is a successful no-op", func(t *testing.T) {
		pipeline := newTestPipeline(t, &fakeSource{}, standardDirectory(), &fakeTransport{}, &fakeHistory{})

		summary, err := pipeline.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, summary.EmailsSent)
		assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
	})

	t.Run("history read failure skips the lead without sending", func(t *testing.T) {
		src := &fakeSource{items: map[model.Category][]model.ActionItem{
			model.CategoryAssigned: {item("p1", "init-1")},
		}}
		transport := &fakeTransport{}
		history := &fakeHistory{err: errors.New("connection refused")}
		pipeline := newTestPipeline(t, src, standardDirectory(), transport, history)

		summary, err := pipeline.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.SkippedLeads)
		assert.Zero(t, summary.EmailsSent)
		assert.Empty(t, transport.sent)
	})
}

// flakyTransport fails the first N sends, then succeeds.
type flakyTransport struct {
	failFirst int
	sent      []mailer.Message
}

func (f *flakyTransport) Send(_ context.Context, msg mailer.Message) (string, error) {
	if f.failFirst > 0 {
		f.failFirst--
		return "", errors.New("status 500: internal error")
	}
	f.sent = append(f.sent, msg)
	return "msg-ok", nil
}

func (f *flakyTransport) Provider() string { return "resend" }

func TestPipelineEscalationScenario(t *testing.T) {
	// Initiative 1 has one critical item and one merely upcoming item: the
	// critical tier wins, the email goes to the admins, and the upcoming item
	// stays unrecorded for the lead's next digest.
	src := &fakeSource{items: map[model.Category][]model.ActionItem{
		model.CategoryFourDaysPastDue: {item("pA", "init-1")},
		model.CategoryDueTomorrow:     {item("pB", "init-1")},
	}}
	transport := &fakeTransport{}
	history := &fakeHistory{}
	pipeline := newTestPipeline(t, src, standardDirectory(), transport, history)

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.EmailsSent)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, testBook.Admins, msg.To)
	assert.Equal(t, SubjectCritical, msg.Subject)

	require.Len(t, history.records, 1)
	assert.Equal(t, "pA", history.records[0].PageID)
	assert.Equal(t, string(model.CategoryFourDaysPastDue), history.records[0].Category)

	// Next run on the same day: the critical item is deduplicated, and the
	// due-tomorrow item now gets its own digest to the lead.
	second, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, second.EmailsSent)

	require.Len(t, transport.sent, 2)
	assert.Equal(t, []string{"jordan@businessbuilders.org"}, transport.sent[1].To)
	assert.Equal(t, SubjectDigest, transport.sent[1].Subject)
}
