// Package alert provides the shared finding model produced by scan rules:
// the Alert record, its risk/confidence enumerations, the static per-rule
// Metadata descriptor, and a builder that seeds alerts from rule defaults.
package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert is one confirmed finding. It is created once via a Builder and never
// mutated after emission; the host displays, persists or exports it.
//
// Evidence, when non-empty, is a literal substring of the inspected message
// representation (header block or body) so findings stay auditable.
type Alert struct {
	// ID uniquely identifies this alert instance.
	ID string `json:"id"`

	// RuleID is the stable numeric id of the rule that raised the alert.
	RuleID int `json:"rule_id"`

	Name       string     `json:"name"`
	Risk       Risk       `json:"risk"`
	Confidence Confidence `json:"confidence"`

	Description string `json:"description,omitempty"`
	Solution    string `json:"solution,omitempty"`
	References  string `json:"references,omitempty"`

	// Evidence is the exact text the finding was based on.
	Evidence string `json:"evidence,omitempty"`

	// OtherInfo carries supplementary observations, one per line.
	OtherInfo string `json:"other_info,omitempty"`

	// Attack is the request payload used, for active rules.
	Attack string `json:"attack,omitempty"`

	// URI is the request URL the finding applies to.
	URI string `json:"uri,omitempty"`

	CWEID  int               `json:"cwe_id,omitempty"`
	WASCID int               `json:"wasc_id,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`

	Time time.Time `json:"time"`
}

// Builder assembles an Alert pre-populated with a rule's static defaults.
// Zero-value fields not overridden keep the metadata defaults.
type Builder struct {
	a Alert
}

// NewBuilder returns a builder seeded from the rule metadata.
func NewBuilder(meta Metadata) *Builder {
	return &Builder{a: Alert{
		RuleID:      meta.ID,
		Name:        meta.Name,
		Risk:        meta.Risk,
		Confidence:  meta.Confidence,
		Description: meta.Description,
		Solution:    meta.Solution,
		References:  meta.References,
		CWEID:       meta.CWEID,
		WASCID:      meta.WASCID,
		Tags:        meta.Tags,
	}}
}

// Risk overrides the default risk.
func (b *Builder) Risk(r Risk) *Builder {
	b.a.Risk = r
	return b
}

// Confidence overrides the default confidence.
func (b *Builder) Confidence(c Confidence) *Builder {
	b.a.Confidence = c
	return b
}

// Evidence sets the verbatim evidence string.
func (b *Builder) Evidence(e string) *Builder {
	b.a.Evidence = e
	return b
}

// OtherInfo sets the supplementary observations.
func (b *Builder) OtherInfo(info string) *Builder {
	b.a.OtherInfo = info
	return b
}

// Attack sets the request payload used to provoke the finding.
func (b *Builder) Attack(attack string) *Builder {
	b.a.Attack = attack
	return b
}

// URI sets the request URL the finding applies to.
func (b *Builder) URI(uri string) *Builder {
	b.a.URI = uri
	return b
}

// Build finalizes the alert, assigning its ID and timestamp.
func (b *Builder) Build() Alert {
	a := b.a
	a.ID = uuid.NewString()
	a.Time = time.Now()
	if a.Tags != nil {
		tags := make(map[string]string, len(a.Tags))
		for k, v := range a.Tags {
			tags[k] = v
		}
		a.Tags = tags
	}
	return a
}
