// Package rule defines the contracts scan rules implement and the engine
// that dispatches transactions to them.
//
// Rules come in two capability sets. Passive rules react to an existing
// transaction and perform no network I/O. Active rules may synthesize
// follow-up transactions and send them through the host-provided Sender.
// Both are identified by a stable numeric id carried in their metadata.
package rule

import (
	"context"

	"github.com/rulehound/rulehound/pkg/alert"
	"github.com/rulehound/rulehound/pkg/httpmsg"
)

// PassiveRule inspects captured transactions without issuing new requests.
// Implementations must not mutate the transaction. Errors are contained at
// the engine boundary; a failing rule never aborts its siblings.
type PassiveRule interface {
	// Meta returns the rule's static descriptor.
	Meta() alert.Metadata

	// InspectRequest examines the request half of a transaction.
	InspectRequest(tx *httpmsg.Transaction) []alert.Alert

	// InspectResponse examines the response half of a transaction.
	InspectResponse(tx *httpmsg.Transaction) []alert.Alert
}

// ActiveRule probes a target by sending follow-up transactions.
// Implementations must check ctx between sends so a scan can be aborted
// cooperatively; a cancelled scan produces no alert rather than a partial one.
type ActiveRule interface {
	// Meta returns the rule's static descriptor.
	Meta() alert.Metadata

	// AppliesTo reports whether the rule is worth running against a target
	// with the given declared technologies.
	AppliesTo(techs TechSet) bool

	// Scan probes the target described by the base transaction. The sender
	// is the only permitted network path.
	Scan(ctx context.Context, base *httpmsg.Transaction, send Sender, strength Strength, threshold Threshold) ([]alert.Alert, error)
}

// Sender is the host-provided transport used by active rules.
type Sender interface {
	// Send transmits the transaction and returns a copy completed with the
	// response. Timeouts and transport errors are returned as errors; the
	// caller treats them as absence of evidence, not as findings.
	Send(ctx context.Context, tx *httpmsg.Transaction, followRedirects bool) (*httpmsg.Transaction, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, tx *httpmsg.Transaction, followRedirects bool) (*httpmsg.Transaction, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, tx *httpmsg.Transaction, followRedirects bool) (*httpmsg.Transaction, error) {
	return f(ctx, tx, followRedirects)
}

// Raiser is the host-provided alert sink. Raise is fire-and-forget from the
// rule's perspective.
type Raiser interface {
	Raise(a alert.Alert)
}

// RaiserFunc adapts a function to the Raiser interface.
type RaiserFunc func(a alert.Alert)

// Raise calls f.
func (f RaiserFunc) Raise(a alert.Alert) { f(a) }
