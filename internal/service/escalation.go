package service

import (
	"github.com/bbuilders/actionbot/internal/model"
)

// Fixed subject lines per escalation tier.
const (
	SubjectCritical  = "Critical: Action Items 4+ Days Past Due"
	SubjectAttention = "Attention Required: Past Due Action Items"
	SubjectDigest    = "Action Items Update"
)

// RecipientBook holds the fixed escalation addresses.
type RecipientBook struct {
	Admins    []string
	President string
	VP        string
}

// tierRule is one entry in the escalation priority chain.
type tierRule struct {
	tier    model.Tier
	matches func(digest model.CategoryItems) bool
	build   func(book RecipientBook, leadEmail string) (to, cc []string, subject string, include []model.Category)
}

// escalationChain is evaluated top-down, first match wins. New tiers slot in
// by priority rank alone.
var escalationChain = []tierRule{
	{
		tier: model.TierFourDaysPastDue,
		matches: func(digest model.CategoryItems) bool {
			return digest.Count(model.CategoryFourDaysPastDue) > 0
		},
		build: func(book RecipientBook, leadEmail string) ([]string, []string, string, []model.Category) {
			// Escalated past the lead: administrators only.
			return book.Admins, nil, SubjectCritical,
				[]model.Category{model.CategoryFourDaysPastDue}
		},
	},
	{
		tier: model.TierTwoDaysPastDue,
		matches: func(digest model.CategoryItems) bool {
			return digest.Count(model.CategoryTwoDaysPastDue) > 0
		},
		build: func(book RecipientBook, leadEmail string) ([]string, []string, string, []model.Category) {
			// Past-due items ride along in the same email and are marked
			// sent with it, so they never trigger a second, lower-tier send.
			return []string{leadEmail},
				[]string{book.President, book.VP},
				SubjectAttention,
				[]model.Category{model.CategoryTwoDaysPastDue, model.CategoryPastDue}
		},
	},
	{
		tier: model.TierDigest,
		matches: func(digest model.CategoryItems) bool {
			return digest.Count(model.CategoryAssigned, model.CategoryDueTomorrow, model.CategoryPastDue) > 0
		},
		build: func(book RecipientBook, leadEmail string) ([]string, []string, string, []model.Category) {
			return []string{leadEmail}, nil, SubjectDigest,
				[]model.Category{model.CategoryAssigned, model.CategoryDueTomorrow, model.CategoryPastDue}
		},
	},
}

// Selector picks the escalation tier for one lead's digest.
type Selector struct {
	book RecipientBook
}

func NewSelector(book RecipientBook) *Selector {
	return &Selector{book: book}
}

// Select walks the priority chain and returns the first matching tier's
// decision, or nil when every category is empty. Pure and deterministic.
func (s *Selector) Select(digest model.CategoryItems, leadEmail string) *model.EmailDecision {
	for _, rule := range escalationChain {
		if !rule.matches(digest) {
			continue
		}
		to, cc, subject, include := rule.build(s.book, leadEmail)
		return &model.EmailDecision{
			Tier:    rule.tier,
			To:      to,
			CC:      cc,
			Subject: subject,
			Include: include,
		}
	}
	return nil
}
