package model

import "time"

// Category is one urgency bucket an item was classified into at query time.
// Categories are disjoint filters but an item can show up in more than one.
type Category string

const (
	CategoryAssigned        Category = "assigned"
	CategoryDueTomorrow     Category = "dueTomorrow"
	CategoryPastDue         Category = "pastDue"
	CategoryTwoDaysPastDue  Category = "twoDaysPastDue"
	CategoryFourDaysPastDue Category = "fourDaysPastDue"
)

// Categories lists all urgency categories in ascending severity order.
var Categories = []Category{
	CategoryAssigned,
	CategoryDueTomorrow,
	CategoryPastDue,
	CategoryTwoDaysPastDue,
	CategoryFourDaysPastDue,
}

// Placeholders for fields missing at the source. One bad record degrades to
// these instead of aborting the batch.
const (
	PlaceholderTitle = "undefined"
	PlaceholderValue = "None"
)

// Field is a source property that is either present or defaulted to a
// placeholder. Callers can tell the two apart instead of testing for
// magic strings.
type Field struct {
	value     string
	defaulted bool
}

// FieldOf wraps a value that was present at the source.
func FieldOf(value string) Field {
	return Field{value: value}
}

// FieldDefault wraps a placeholder standing in for a missing value.
func FieldDefault(placeholder string) Field {
	return Field{value: placeholder, defaulted: true}
}

func (f Field) String() string  { return f.value }
func (f Field) Defaulted() bool { return f.defaulted }

// DueDateLayout is the calendar-date format used by the workspace source.
const DueDateLayout = "2006-01-02"

// ActionItem is one task record from the workspace database.
type ActionItem struct {
	// PageID is the stable source identifier; the dedup key depends on it.
	PageID      string
	Title       Field
	Status      Field
	DueDate     Field
	URL         string
	Initiatives []string
}

// DueTime parses the item's due date in the given zone.
// ok is false when the due date is missing or unparseable.
func (a ActionItem) DueTime(loc *time.Location) (time.Time, bool) {
	if a.DueDate.Defaulted() {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DueDateLayout, a.DueDate.String(), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysOverdue returns whole calendar days past due as of now, or 0 when the
// item is not overdue or has no usable due date.
func (a ActionItem) DaysOverdue(now time.Time, loc *time.Location) int {
	due, ok := a.DueTime(loc)
	if !ok {
		return 0
	}
	days := int(now.In(loc).Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
