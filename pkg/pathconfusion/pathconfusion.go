// Package pathconfusion provides active detection of relative path
// confusion: server-side behavior that leaves browsers confused about the
// base path of a page, so that relative references resolve under an
// attacker-chosen path. Combined with a missing or bypassable Content-Type,
// this can lead to the browser interpreting HTML as CSS or script.
package pathconfusion

import (
	"context"
	"crypto/rand"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/rulehound/rulehound/pkg/alert"
	"github.com/rulehound/rulehound/pkg/defaults"
	"github.com/rulehound/rulehound/pkg/httpmsg"
	"github.com/rulehound/rulehound/pkg/rule"
)

// RuleID is the stable id of the relative path confusion rule.
const RuleID = 10051

// relativeLoadingAttributes maps HTML attributes that load objects via a
// URL (potentially a relative one) to the tags that use them. Scanned in
// order; the style attribute and <style> element bodies are special-cased
// against the CSS url() pattern.
var relativeLoadingAttributes = []struct {
	attr string
	tags []string
}{
	// base has an href too, but it uses an absolute URL (or should do)
	{"href", []string{"link", "a", "area"}},
	{"src", []string{"img", "iframe", "frame", "embed", "script", "input", "audio", "video", "source"}},
	{"lowersrc", []string{"img", "iframe", "frame", "embed", "script", "input", "audio", "video", "source"}},
	{"dynsrc", []string{"img", "iframe", "frame", "embed", "script", "input", "audio", "video", "source"}},
	{"action", []string{"form"}},
	{"data", []string{"object"}},
	{"codebase", []string{"applet", "object"}},
	{"cite", []string{"blockquote", "del", "ins", "q"}},
	{"background", []string{"body"}},
	{"longdesc", []string{"frame", "iframe", "img"}},
	{"profile", []string{"head"}},
	{"usemap", []string{"img", "input", "object"}},
	{"classid", []string{"object"}},
	{"formaction", []string{"button"}},
	{"icon", []string{"command", "input"}},
	{"manifest", []string{"html"}},
	{"poster", []string{"video"}},
	{"archive", []string{"object", "applet"}},
	// every tag except a handful can carry a style attribute
	{"style", []string{""}},
	// the body of a <style> element can contain url() loads too
	{"", []string{"style"}},
}

// quirksModeDoctypePublicIDs lists doctype public identifiers known to
// trigger quirks mode in at least one major browser.
// See https://hsivonen.fi/doctype/ for the gory details.
var quirksModeDoctypePublicIDs = []string{
	"-//W3C//DTD HTML 3.2 Final//EN",
	"-//W3C//DTD HTML 4.01//EN",
	"-//W3C//DTD HTML 4.0 Transitional//EN",
	"-//W3C//DTD HTML 4.01 Transitional//EN",
	"-//W3C//DTD XHTML 1.0 Transitional//EN",
	"-//W3C//DTD XHTML 1.1//EN",
	"-//W3C//DTD XHTML Basic 1.0//EN",
	"-//W3C//DTD XHTML 1.0 Strict//EN",
	"ISO/IEC 15445:2000//DTD HTML//EN",
	"ISO/IEC 15445:2000//DTD HyperText Markup Language//EN",
	"ISO/IEC 15445:1999//DTD HTML//EN",
	"ISO/IEC 15445:1999//DTD HyperText Markup Language//EN",
}

// styleURLLoad matches CSS property loads such as "background: url(image.png)".
// The captured reference is filtered afterwards, since Go regexps have no
// negative lookahead.
var styleURLLoad = regexp.MustCompile(`(?is)[a-z_-]*\s*:\s*url\s*\(\s*([^)]*)\)`)

// Observations accumulated into an alert's OtherInfo, one per line.
const (
	msgNoBaseTag = "No base tag was set in the response, so the browser resolves " +
		"relative references against the full request path."
	msgMultipleBaseTags = "More than one base tag was set in the response, which is " +
		"not valid HTML, so browsers may disagree on how to resolve relative references."
	msgContentTypeSet = "A Content-Type of %s was specified, so an attacker needs a " +
		"way to force the browser to ignore it."
	msgQuirksExplicit = "Quirks mode is explicitly enabled via an X-UA-Compatible meta " +
		"tag (which overrides any HTML 5 doctype), allowing the stated Content-Type to be bypassed."
	msgQuirksLegacyDoctype = "Quirks mode is implicitly triggered via the legacy doctype " +
		"public identifier %q, allowing the stated Content-Type to be bypassed."
	msgQuirksNoDoctype = "Quirks mode is implicitly enabled via the absence of a doctype, " +
		"allowing the stated Content-Type to be bypassed."
	msgFramingAllowed = "No X-Frame-Options header was set, so the page can be framed by " +
		"a page that forces quirks mode, allowing the stated Content-Type to be bypassed."
	msgNoContentType = "No Content-Type was specified, so the browser is free to interpret " +
		"the response as any content type."
)

// Rule is the active relative path confusion check.
//
// The random attack path is generated once per rule instance and reused for
// every scan, so repeated attacks against the same URL do not fragment into
// new findings via fresh random paths.
type Rule struct {
	meta       alert.Metadata
	attackPath string
}

// New creates the rule with a fresh random attack path.
func New() *Rule {
	return &Rule{
		meta: alert.Metadata{
			ID:         RuleID,
			Name:       "Relative Path Confusion",
			Category:   alert.CategoryServer,
			Risk:       alert.RiskMedium,
			Confidence: alert.ConfidenceMedium,
			Description: "The web server is configured to serve responses to ambiguous " +
				"URLs in a manner that is likely to cause confusion about the correct " +
				"relative path for the URL. Resources (images, CSS) loaded via relative " +
				"URLs may then be requested under an attacker-controlled path, which can " +
				"cause the browser to interpret HTML responses as CSS or other content types.",
			Solution: "Serve a specific, valid Content-Type for every response, disallow " +
				"framing, use a modern doctype, and consider setting a base tag.",
			References: "https://www.blackhat.com/docs/asia-15/materials/asia-15-Gil-Is-Your-Timespace-Safe-Time-And-Position-Spoofing-Opensourcely.pdf",
			CWEID:      defaults.CWEImproperInputValidation,
			WASCID:     defaults.WASCImproperInputHandling,
			Tags: defaults.OWASPTags(
				defaults.TagOWASP2021A05SecMisconfig,
				defaults.TagOWASP2017A06SecMisconfig,
			),
		},
		attackPath: "/" + randomSegment(5) + "/" + randomSegment(5),
	}
}

// Meta returns the rule descriptor.
func (r *Rule) Meta() alert.Metadata {
	return r.meta
}

// AppliesTo always returns true; path confusion is technology-agnostic.
func (r *Rule) AppliesTo(techs rule.TechSet) bool {
	return true
}

// AttackPath returns the random path segment pair appended to probed URLs.
func (r *Rule) AttackPath() string {
	return r.attackPath
}

// Scan probes the base transaction's URL for relative path confusion.
//
// The analysis is a decision tree with five exit points, in order: no file
// extension (not applicable), a single authoritative base tag (protected),
// no relative references (not exploitable), a Content-Type that can be
// neither quirked nor framed around (content-type protected), and finally
// the raised finding. Observations from the base-tag, content-type and
// framing checks accumulate into the alert's OtherInfo.
func (r *Rule) Scan(ctx context.Context, base *httpmsg.Transaction, send rule.Sender, strength rule.Strength, threshold rule.Threshold) ([]alert.Alert, error) {
	if base.URL == nil {
		return nil, nil
	}

	// Only URLs whose final path segment has a file extension are
	// candidates; everything else resolves unambiguously.
	filename := path.Base(base.URL.Path)
	if filename == "/" || filename == "." || path.Ext(filename) == "" {
		return nil, nil
	}

	// Build the ambiguous URL: extra path segments between the original
	// path and the query, preserving scheme, authority and query.
	hacked := *base.URL
	hacked.Path = strings.TrimSuffix(base.URL.Path, "/") + r.attackPath
	hacked.Fragment = ""

	probe := &httpmsg.Transaction{Method: "GET", URL: &hacked}
	probe.SetRequestCookies(base.RequestCookies())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := send.Send(ctx, probe, true)
	if err != nil {
		// A failed or timed-out probe is absence of evidence, not a finding.
		return nil, fmt.Errorf("relative path probe: %w", err)
	}

	doc, err := parseDocument(resp.ResponseBody)
	if err != nil {
		return nil, fmt.Errorf("parsing probe response: %w", err)
	}

	var observations []string

	// A single base tag under <head> gives the browser an authoritative
	// base; no confusion is possible.
	switch n := countBaseHref(doc); {
	case n == 1:
		return nil, nil
	case n > 1:
		observations = append(observations, msgMultipleBaseTags)
	default:
		observations = append(observations, msgNoBaseTag)
	}

	evidence, found := findRelativeReference(doc)
	if !found {
		// Nothing on the page resolves relatively, so there is nothing
		// for an attacker to redirect.
		return nil, nil
	}

	if ct, ok := resp.ResponseHeader.Get("Content-Type"); ok {
		observations = append(observations, fmt.Sprintf(msgContentTypeSet, ct))
		quirks, quirksObs := quirksModeEnabled(doc)
		observations = append(observations, quirksObs...)

		if !quirks {
			if _, set := resp.ResponseHeader.Get("X-Frame-Options"); set {
				// DENY, SAMEORIGIN and ALLOW-FROM all rule out framing
				// the page to force quirks mode; so does any other value,
				// conservatively.
				return nil, nil
			}
			observations = append(observations, msgFramingAllowed)
		}
	} else {
		observations = append(observations, msgNoContentType)
	}

	a := alert.NewBuilder(r.meta).
		Evidence(evidence).
		OtherInfo(strings.Join(observations, "\n")).
		Attack(hacked.String()).
		URI(base.URI()).
		Build()
	return []alert.Alert{a}, nil
}

// countBaseHref counts "html > head > base[href]" instances.
func countBaseHref(doc *document) int {
	count := 0
	for _, i := range doc.elements("base") {
		if _, ok := doc.attr(i, "href"); !ok {
			continue
		}
		if doc.hasAncestorPath(i, "head", "html") {
			count++
		}
	}
	return count
}

// findRelativeReference walks the attribute→tags table in order and returns
// the first relative reference found: the reconstructed tag markup, or the
// matched CSS snippet for style-based matches.
func findRelativeReference(doc *document) (string, bool) {
	for _, entry := range relativeLoadingAttributes {
		for _, tag := range entry.tags {
			for _, i := range doc.elements(tag) {
				if tag == "style" && entry.attr == "" {
					// The body of a <style> element, not an attribute.
					if snippet, ok := matchStyleURL(doc.textContent(i)); ok {
						return snippet, true
					}
					continue
				}
				value, ok := doc.attr(i, entry.attr)
				if !ok {
					continue
				}
				if entry.attr == "style" {
					// Inline style attribute: look for url() loads.
					if _, ok := matchStyleURL(value); ok {
						return value, true
					}
					continue
				}
				if isRelativeReference(value) {
					return doc.markup(i), true
				}
			}
		}
	}
	return "", false
}

// isRelativeReference reports whether an attribute value is a relative URL.
// References starting with a scheme are absolute; "/" (and "//") infer the
// host; "#" is a fragment link or script invocation.
func isRelativeReference(value string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	return !strings.HasPrefix(v, "HTTP://") &&
		!strings.HasPrefix(v, "HTTPS://") &&
		!strings.HasPrefix(v, "/") &&
		!strings.HasPrefix(v, "#")
}

// matchStyleURL looks for a CSS url() load of a relative reference in a
// style body or attribute. Quotes are stripped first so url('x.png') and
// url("x.png") match uniformly.
func matchStyleURL(body string) (string, bool) {
	stripped := strings.NewReplacer(`"`, "", "'", "").Replace(body)
	for _, m := range styleURLLoad.FindAllStringSubmatchIndex(stripped, -1) {
		ref := strings.ToLower(strings.TrimSpace(stripped[m[2]:m[3]]))
		if ref == "" ||
			strings.HasPrefix(ref, "http:") ||
			strings.HasPrefix(ref, "https:") ||
			strings.HasPrefix(ref, "/") ||
			strings.HasPrefix(ref, "#") {
			continue
		}
		return stripped[m[0]:m[1]], true
	}
	return "", false
}

// quirksModeEnabled determines whether the page renders in quirks mode:
// explicitly via an X-UA-Compatible meta tag not set to edge, or implicitly
// via a missing doctype or a legacy doctype public identifier.
func quirksModeEnabled(doc *document) (bool, []string) {
	quirks := false
	var obs []string

	for _, i := range doc.elements("meta") {
		if !doc.hasAncestorPath(i, "head", "html") {
			continue
		}
		httpEquiv, ok := doc.attr(i, "http-equiv")
		if !ok {
			continue
		}
		content, _ := doc.attr(i, "content")
		if strings.EqualFold(strings.TrimSpace(httpEquiv), "X-UA-Compatible") &&
			!strings.EqualFold(strings.TrimSpace(content), "IE=edge") {
			// X-UA-Compatible trumps the doctype; IE=edge is the one
			// value that selects standards mode.
			quirks = true
			obs = append(obs, msgQuirksExplicit)
		}
	}
	if quirks {
		return true, obs
	}

	doctypes := doc.doctypes()
	if len(doctypes) == 0 {
		return true, append(obs, msgQuirksNoDoctype)
	}
	for _, i := range doctypes {
		publicID := doc.publicID(i)
		for _, legacy := range quirksModeDoctypePublicIDs {
			if strings.EqualFold(publicID, legacy) {
				quirks = true
				obs = append(obs, fmt.Sprintf(msgQuirksLegacyDoctype, publicID))
				break
			}
		}
	}
	return quirks, obs
}

// randomSegment returns n random characters drawn from a set that cannot be
// mistaken for a file extension.
func randomSegment(n int) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = chars[int(b[i])%len(chars)]
	}
	return string(b)
}
