package model

// Tier is the escalation level chosen for one lead's digest. It determines
// both the recipient set and which categories appear in the body.
type Tier string

const (
	// TierFourDaysPastDue escalates past the lead to the administrators.
	TierFourDaysPastDue Tier = "fourDaysPastDue"
	// TierTwoDaysPastDue goes to the lead with leadership cc'd.
	TierTwoDaysPastDue Tier = "twoDaysPastDue"
	// TierDigest is the routine update to the lead alone.
	TierDigest Tier = "digest"
)

// EmailDecision is the escalation selector's output for one (initiative,
// lead) digest. A nil decision means no email is sent and no history written.
type EmailDecision struct {
	Tier    Tier
	To      []string
	CC      []string
	Subject string
	// Include lists the categories whose items appear in the body. Every
	// item in an included category is marked sent after a successful send.
	Include []Category
}

// ItemCount sums the digest items across the decision's included categories.
func (d *EmailDecision) ItemCount(digest CategoryItems) int {
	return digest.Count(d.Include...)
}
