package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/bbuilders/actionbot/internal/model"
)

// Section is one category's items in a rendered email body.
type Section struct {
	Heading string
	Items   []TemplateItem
}

// TemplateItem is one action item prepared for rendering.
type TemplateItem struct {
	Title       string
	Status      string
	StatusClass string
	DueDate     string
	DaysOverdue int
	URL         string
}

// RenderData feeds one email body template.
type RenderData struct {
	Greeting    string
	Initiative  string
	Headline    string
	Intro       string
	Sections    []Section
	TotalItems  int
	GeneratedOn string
}

var sectionHeadings = map[model.Category]string{
	model.CategoryAssigned:        "Newly Assigned",
	model.CategoryDueTomorrow:     "Due Tomorrow",
	model.CategoryPastDue:         "Past Due",
	model.CategoryTwoDaysPastDue:  "2+ Days Past Due",
	model.CategoryFourDaysPastDue: "4+ Days Past Due",
}

var tierHeadlines = map[model.Tier]string{
	model.TierFourDaysPastDue: "Critical: Action Items 4+ Days Past Due",
	model.TierTwoDaysPastDue:  "Past Due Action Items",
	model.TierDigest:          "Action Items Update",
}

var bodyTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Headline}}</title>
</head>
<body style="font-family:ui-sans-serif,-apple-system,'Segoe UI',Helvetica,Arial,sans-serif;line-height:1.5;color:#000;max-width:600px;margin:0 auto;padding:24px;background-color:#fff;">
<div style="text-align:center;margin-bottom:24px;padding:12px 16px;background-color:#fdf2f2;border:1px solid #fecaca;border-radius:6px;">
<h1 style="color:#dc2626;margin:0;font-size:18px;font-weight:600;">{{.Headline}}</h1>
</div>
<p style="font-size:16px;">{{.Greeting}},</p>
<p style="font-size:16px;margin-bottom:32px;">{{.Intro}}</p>
{{range .Sections}}
<div style="color:#000;font-size:16px;font-weight:600;margin:32px 0 16px 0;padding:12px 16px;background-color:#f3f4f6;border:1px solid #e5e7eb;border-radius:6px;">{{.Heading}}</div>
{{range .Items}}
<div style="margin:16px 0;padding:20px;border:1px solid #e5e7eb;border-radius:6px;">
<div style="font-weight:600;margin-bottom:12px;font-size:15px;">{{.Title}}</div>
<div style="font-size:14px;color:#6b7280;margin:8px 0;"><strong>Status:</strong> <span style="padding:4px 8px;border-radius:4px;font-size:11px;text-transform:uppercase;">{{.Status}}</span></div>
<div style="font-size:14px;color:#6b7280;margin:8px 0;"><strong>Due Date:</strong> <span style="font-weight:500;color:#dc2626;">{{.DueDate}}</span>{{if gt .DaysOverdue 0}} <span style="font-weight:500;color:#dc2626;background-color:#fee2e2;padding:2px 6px;border-radius:4px;font-size:12px;">({{.DaysOverdue}} days overdue)</span>{{end}}</div>
<div style="margin-top:12px;text-align:center;">
<a href="{{.URL}}" style="display:inline-block;background-color:#2563eb;color:#fff;padding:10px 16px;text-decoration:none;border-radius:6px;font-weight:500;font-size:14px;">View in Notion</a>
</div>
</div>
{{end}}
{{end}}
<p style="font-size:16px;margin:32px 0 24px 0;">Please take action on these items as soon as possible.</p>
<p style="font-size:16px;font-weight:500;margin-bottom:8px;">Best regards,<br><strong>Business Builders Action Items Bot</strong></p>
<div style="margin-top:48px;padding-top:24px;border-top:1px solid #e9e9e7;font-size:13px;color:#9b9a97;text-align:center;">
<p>This is an automated message. Please do not reply to this email.</p>
<p>Generated on {{.GeneratedOn}}</p>
</div>
</body>
</html>
`))

// Renderer builds tier-specific email bodies.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	return &Renderer{loc: loc}
}

// Render produces the HTML and plain-text bodies for one decision. Sections
// follow the decision's included categories in severity-descending order, so
// at the attention-required tier the two-days-past-due items lead and the
// past-due items ride along below them.
func (r *Renderer) Render(decision *model.EmailDecision, digest model.CategoryItems, lead model.Lead, initiativeName string, now time.Time) (string, string, error) {
	data := RenderData{
		Initiative:  initiativeName,
		Headline:    tierHeadlines[decision.Tier],
		GeneratedOn: now.In(r.loc).Format("Monday, January 2, 2006"),
	}

	if decision.Tier == model.TierFourDaysPastDue {
		data.Greeting = "Hi Leadership Team"
	} else {
		data.Greeting = "Hi " + lead.FirstName()
	}

	for _, category := range severityDescending(decision.Include) {
		items := digest[category]
		if len(items) == 0 {
			continue
		}
		section := Section{Heading: sectionHeadings[category]}
		for _, item := range items {
			section.Items = append(section.Items, TemplateItem{
				Title:       item.Title.String(),
				Status:      item.Status.String(),
				DueDate:     formatDueDate(item, r.loc),
				DaysOverdue: item.DaysOverdue(now, r.loc),
				URL:         item.URL,
			})
		}
		data.Sections = append(data.Sections, section)
		data.TotalItems += len(items)
	}

	itemsWord, verb := "items", "need"
	if data.TotalItems == 1 {
		itemsWord, verb = "item", "needs"
	}
	data.Intro = fmt.Sprintf("You and the %s team have %d action %s that %s your attention:",
		initiativeName, data.TotalItems, itemsWord, verb)

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render email body: %w", err)
	}

	return buf.String(), renderText(data), nil
}

// renderText is the plain-text fallback for clients that reject HTML.
func renderText(data RenderData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s,\n\n%s\n\n", data.Headline, data.Greeting, data.Intro)
	for _, section := range data.Sections {
		fmt.Fprintf(&b, "%s\n", section.Heading)
		for _, item := range section.Items {
			fmt.Fprintf(&b, "- %s (status: %s, due: %s) %s\n", item.Title, item.Status, item.DueDate, item.URL)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Generated on %s\n", data.GeneratedOn)
	return b.String()
}

func formatDueDate(item model.ActionItem, loc *time.Location) string {
	due, ok := item.DueTime(loc)
	if !ok {
		return item.DueDate.String()
	}
	return due.Format("Mon, Jan 2, 2006")
}

// severityDescending orders categories highest urgency first for rendering.
func severityDescending(categories []model.Category) []model.Category {
	ordered := make([]model.Category, 0, len(categories))
	for i := len(model.Categories) - 1; i >= 0; i-- {
		for _, c := range categories {
			if c == model.Categories[i] {
				ordered = append(ordered, c)
			}
		}
	}
	return ordered
}
