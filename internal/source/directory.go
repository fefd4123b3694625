package source

import (
	"context"
	"fmt"

	"github.com/bbuilders/actionbot/internal/model"
)

// Directory page property names.
const (
	propInitiativeTitle = "Initiative"
	propLeadRelation    = "Lead"
	propLeadName        = "Name"
	propLeadEmail       = "School Email"
)

// InitiativeInfo is the directory record for one initiative.
type InitiativeInfo struct {
	Name    string
	LeadIDs []string
}

// ResolveInitiative looks up an initiative's display name and lead relations.
// A failed lookup is fatal to the run: partial enrichment could mis-route
// escalation emails.
func (c *Client) ResolveInitiative(ctx context.Context, id string) (InitiativeInfo, error) {
	p, err := c.retrievePage(ctx, id)
	if err != nil {
		return InitiativeInfo{}, fmt.Errorf("failed to resolve initiative %s: %w", id, err)
	}

	info := InitiativeInfo{}
	if title, ok := p.Properties[propInitiativeTitle]; ok {
		for _, rt := range title.Title {
			info.Name += rt.PlainText
		}
	}
	if leads, ok := p.Properties[propLeadRelation]; ok {
		for _, rel := range leads.Relation {
			info.LeadIDs = append(info.LeadIDs, rel.ID)
		}
	}

	return info, nil
}

// ResolveLead looks up a lead's name and email.
func (c *Client) ResolveLead(ctx context.Context, id string) (model.Lead, error) {
	p, err := c.retrievePage(ctx, id)
	if err != nil {
		return model.Lead{}, fmt.Errorf("failed to resolve lead %s: %w", id, err)
	}

	lead := model.Lead{ID: id}
	if name, ok := p.Properties[propLeadName]; ok {
		for _, rt := range name.Title {
			lead.Name += rt.PlainText
		}
	}
	if email, ok := p.Properties[propLeadEmail]; ok && email.Email != nil {
		lead.Email = *email.Email
	}

	return lead, nil
}
