// Package crossdomain provides passive detection of cross-domain
// misconfigurations that relax the browser's Same Origin Policy. The current
// check looks for an excessively permissive CORS wildcard.
package crossdomain

import (
	"strings"

	"github.com/rulehound/rulehound/pkg/alert"
	"github.com/rulehound/rulehound/pkg/defaults"
	"github.com/rulehound/rulehound/pkg/httpmsg"
)

// RuleID is the stable id of the cross-domain misconfiguration rule.
const RuleID = 10098

const allowOriginHeader = "Access-Control-Allow-Origin"

// Rule is the passive CORS wildcard check.
type Rule struct {
	meta alert.Metadata
}

// New creates the rule.
func New() *Rule {
	return &Rule{meta: alert.Metadata{
		ID:         RuleID,
		Name:       "Cross-Domain Misconfiguration",
		Category:   alert.CategoryServer,
		Risk:       alert.RiskMedium,
		Confidence: alert.ConfidenceMedium,
		Description: "Web browser data loading may be possible, due to a " +
			"Cross Origin Resource Sharing (CORS) misconfiguration on the web server.",
		Solution: "Ensure that sensitive data is not available in an " +
			"unauthenticated manner (using IP address allow-listing, for instance). " +
			"Configure the Access-Control-Allow-Origin HTTP header to a more " +
			"restrictive set of origins other than the wildcard.",
		References: "https://vulncat.fortify.com/en/detail?id=desc.config.dotnet.html5_overly_permissive_cors_policy",
		CWEID:      defaults.CWEAccessControls,
		WASCID:     defaults.WASCServerMisconfiguration,
		Tags: defaults.OWASPTags(
			defaults.TagOWASP2021A01BrokenAC,
			defaults.TagOWASP2017A05BrokenAC,
		),
	}}
}

// Meta returns the rule descriptor.
func (r *Rule) Meta() alert.Metadata {
	return r.meta
}

// InspectRequest is a no-op; the rule only looks at responses.
func (r *Rule) InspectRequest(tx *httpmsg.Transaction) []alert.Alert {
	return nil
}

// InspectResponse raises one alert when the Access-Control-Allow-Origin
// response header is exactly the wildcard "*". Any other value, an empty
// value, or an absent header yields no alert.
//
// The risk is deliberately Medium rather than High: with the wildcard the
// browser withholds the response body whenever credentials were sent, so
// exploitability depends on the credentials header and transport also being
// attacker-favorable, which this rule does not verify.
func (r *Rule) InspectResponse(tx *httpmsg.Transaction) []alert.Alert {
	value, ok := tx.ResponseHeader.Get(allowOriginHeader)
	if !ok || value != "*" {
		return nil
	}

	a := alert.NewBuilder(r.meta).
		Evidence(extractEvidence(tx.ResponseHeader.String(), allowOriginHeader)).
		OtherInfo("The CORS misconfiguration on the web server permits cross-domain " +
			"read requests from arbitrary third party domains, using unauthenticated " +
			"APIs on this domain.").
		URI(tx.URI()).
		Build()
	return []alert.Alert{a}
}

// extractEvidence cuts the exact header line out of the raw header block:
// from the case-insensitive position of the header name to the next CR.
// The returned string is a verbatim substring of the block.
func extractEvidence(headerBlock, headerName string) string {
	start := strings.Index(strings.ToLower(headerBlock), strings.ToLower(headerName))
	if start < 0 {
		return ""
	}
	end := strings.Index(headerBlock[start:], "\r")
	if end < 0 {
		return headerBlock[start:]
	}
	return headerBlock[start : start+end]
}
