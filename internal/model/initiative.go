package model

// UnassignedID is the sentinel bucket for items with no initiative relation.
// It never triggers a directory lookup.
const (
	UnassignedID   = "UNASSIGNED"
	UnassignedName = "Unassigned"
)

// CategoryItems holds per-category item sequences. Order within a sequence is
// date-ascending, established by the source and preserved downstream.
type CategoryItems map[Category][]ActionItem

// NewCategoryItems returns a set with all five categories present and empty.
func NewCategoryItems() CategoryItems {
	items := make(CategoryItems, len(Categories))
	for _, c := range Categories {
		items[c] = nil
	}
	return items
}

// Count sums the items across the given categories.
func (ci CategoryItems) Count(categories ...Category) int {
	total := 0
	for _, c := range categories {
		total += len(ci[c])
	}
	return total
}

// Empty reports whether every category sequence is empty.
func (ci CategoryItems) Empty() bool {
	return ci.Count(Categories...) == 0
}

// InitiativeBucket groups one initiative's items by urgency category.
type InitiativeBucket struct {
	ID    string
	Items CategoryItems
}

// NewInitiativeBucket creates a bucket with five empty category sequences.
func NewInitiativeBucket(id string) *InitiativeBucket {
	return &InitiativeBucket{
		ID:    id,
		Items: NewCategoryItems(),
	}
}

// Append adds an item to the bucket's sequence for category.
func (b *InitiativeBucket) Append(category Category, item ActionItem) {
	b.Items[category] = append(b.Items[category], item)
}

// Lead is a person responsible for an initiative and a reminder recipient.
type Lead struct {
	ID    string
	Name  string
	Email string
}

// FirstName returns the lead's first name for email greetings.
func (l Lead) FirstName() string {
	for i := 0; i < len(l.Name); i++ {
		if l.Name[i] == ' ' {
			return l.Name[:i]
		}
	}
	return l.Name
}

// EnrichedInitiative is a bucket with its directory metadata resolved.
type EnrichedInitiative struct {
	ID    string
	Name  string
	Leads []Lead
	Items CategoryItems
}
