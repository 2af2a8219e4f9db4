// Package jso provides passive detection of Java serialized objects (JSO)
// travelling in HTTP traffic. Deserializing untrusted JSO payloads is a
// well-known remote code execution vector, so their mere presence in a
// request or response is worth flagging.
//
// The payload signature is the serialization stream magic plus version
// bytes. Each message is scanned across four channels in priority order
// (headers, cookies, parameters, raw body) and three encodings per channel
// (raw, base64, percent-encoded). The first match wins: one alert per
// message, not per channel.
package jso

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/rulehound/rulehound/pkg/alert"
	"github.com/rulehound/rulehound/pkg/defaults"
	"github.com/rulehound/rulehound/pkg/httpmsg"
)

// RuleID is the stable id of the JSO detection rule.
const RuleID = 90002

// magic is the Java serialization stream magic (0xACED) followed by the
// stream version (0x0005).
const magic = "\xac\xed\x00\x05"

// Rule is the passive JSO signature check.
type Rule struct {
	meta alert.Metadata
}

// New creates the rule.
func New() *Rule {
	return &Rule{meta: alert.Metadata{
		ID:         RuleID,
		Name:       "Java Serialization Object",
		Category:   alert.CategoryInfoGathering,
		Risk:       alert.RiskMedium,
		Confidence: alert.ConfidenceMedium,
		Description: "Java Serialization seems to be in use. If not correctly " +
			"validated, deserialization of untrusted data can lead to arbitrary " +
			"code execution.",
		Solution:   "Do not deserialize untrusted data. Validate and sign serialized objects.",
		References: "https://www.oracle.com/java/technologies/javase/seccodeguide.html#8",
		CWEID:      defaults.CWEDeserialization,
		WASCID:     defaults.WASCImproperInputHandling,
		Tags: defaults.OWASPTags(
			defaults.TagOWASP2021A04InsecureDesign,
			defaults.TagOWASP2017A08InsecureDeser,
		),
		Technologies: []string{"java"},
	}}
}

// Meta returns the rule descriptor.
func (r *Rule) Meta() alert.Metadata {
	return r.meta
}

// InspectRequest scans the request headers, cookies, URL and form parameters
// and raw body for a serialized-object signature.
func (r *Rule) InspectRequest(tx *httpmsg.Transaction) []alert.Alert {
	m := firstMatch(
		headerChannel(&tx.RequestHeader),
		cookieChannel(tx.RequestCookies()),
		paramChannel(tx.QueryParams(), tx.FormParams()),
		bodyChannel(tx.RequestBody),
	)
	return r.raise(tx, m)
}

// InspectResponse scans the response headers, Set-Cookie values and raw body.
func (r *Rule) InspectResponse(tx *httpmsg.Transaction) []alert.Alert {
	m := firstMatch(
		headerChannel(&tx.ResponseHeader),
		setCookieChannel(tx.ResponseCookies()),
		nil,
		bodyChannel(tx.ResponseBody),
	)
	return r.raise(tx, m)
}

func (r *Rule) raise(tx *httpmsg.Transaction, m *match) []alert.Alert {
	if m == nil {
		return nil
	}
	a := alert.NewBuilder(r.meta).
		Evidence(m.evidence).
		OtherInfo("A " + m.encoding + " encoded Java serialized object was found in the " + m.where + ".").
		URI(tx.URI()).
		Build()
	return []alert.Alert{a}
}

// match records where and in which encoding the signature was found.
type match struct {
	where    string
	encoding string
	evidence string
}

// channel is a lazily evaluated source of candidate values.
type channel func() *match

// firstMatch evaluates the channels in priority order and returns the first
// hit. Nil channels are skipped.
func firstMatch(channels ...channel) *match {
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if m := ch(); m != nil {
			return m
		}
	}
	return nil
}

func headerChannel(h *httpmsg.Header) channel {
	return func() *match {
		for _, f := range h.Fields() {
			if enc, ok := detect(f.Value); ok {
				return &match{where: "header " + f.Name, encoding: enc, evidence: f.Value}
			}
		}
		return nil
	}
}

func cookieChannel(cookies []*http.Cookie) channel {
	return func() *match {
		for _, c := range cookies {
			if enc, ok := detect(c.Value); ok {
				return &match{where: "cookie " + c.Name, encoding: enc, evidence: c.Value}
			}
		}
		return nil
	}
}

func setCookieChannel(cookies []*http.Cookie) channel {
	return func() *match {
		for _, c := range cookies {
			if enc, ok := detect(c.Value); ok {
				return &match{where: "Set-Cookie " + c.Name, encoding: enc, evidence: c.Value}
			}
		}
		return nil
	}
}

func paramChannel(sets ...url.Values) channel {
	return func() *match {
		for _, values := range sets {
			for name, vs := range values {
				for _, v := range vs {
					if enc, ok := detect(v); ok {
						return &match{where: "parameter " + name, encoding: enc, evidence: v}
					}
				}
			}
		}
		return nil
	}
}

func bodyChannel(body []byte) channel {
	return func() *match {
		if len(body) == 0 {
			return nil
		}
		if hasMagic(string(body)) {
			return &match{where: "body", encoding: "raw", evidence: string(body[:len(magic)])}
		}
		candidate := strings.TrimSpace(string(body))
		if decoded, ok := base64Decode(candidate); ok && hasMagic(decoded) {
			return &match{where: "body", encoding: "base64", evidence: candidate}
		}
		return nil
	}
}

// detect reports whether the candidate carries the signature in any of the
// supported encodings. Decoding failures are non-matches, never errors.
func detect(candidate string) (encoding string, ok bool) {
	if hasMagic(candidate) {
		return "raw", true
	}
	if decoded, ok := base64Decode(candidate); ok && hasMagic(decoded) {
		return "base64", true
	}
	if decoded, err := url.QueryUnescape(candidate); err == nil && hasMagic(decoded) {
		return "URL", true
	}
	return "", false
}

func hasMagic(s string) bool {
	return strings.HasPrefix(s, magic)
}

// base64Decode decodes the candidate leniently with respect to padding.
func base64Decode(candidate string) (string, bool) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(candidate); err == nil {
			return string(decoded), true
		}
	}
	return "", false
}
