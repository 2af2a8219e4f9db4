// Package authdiag provides a diagnostic traffic collector for auditing
// authentication flows. For each relevant transaction it renders a redacted
// transcript: hosts are replaced by stable pseudonyms, tokens by stable
// pseudonym literals, and the registered username/password by fixed fake
// values so secret leakage is trivially greppable in transcripts.
package authdiag

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/rulehound/rulehound/pkg/httpmsg"
	"github.com/rulehound/rulehound/pkg/jsonutil"
)

// Fixed literals the registered secrets sanitize to. They are deliberately
// recognizable: if either appears where it should not, a credential leaked.
const (
	FakeUsername = "FakeUserName@example.com"
	FakePassword = "F4keP4ssw0rd"
)

// StringCollector is the host-provided sink for transcript blocks.
type StringCollector interface {
	Log(s string)
}

// StringCollectorFunc adapts a function to the StringCollector interface.
type StringCollectorFunc func(s string)

// Log calls f.
func (f StringCollectorFunc) Log(s string) { f(s) }

// Collector renders redacted transcripts of authentication traffic.
//
// The pseudonym maps and their counters are the collector's only mutable
// state; every read and write goes through one mutex, so concurrent
// response handlers observe a consistent pseudonym for a given literal
// (first writer wins, later callers get the same value).
type Collector struct {
	mu       sync.Mutex
	enabled  bool
	sink     StringCollector
	relevant func(*httpmsg.Transaction) bool

	hostMap  map[string]string
	hostID   int
	tokenMap map[string]string
	tokenID  int

	username string
	password string
}

// New creates a disabled collector writing to the given sink. The relevance
// gate defaults to DefaultRelevance; pass nil to keep it.
func New(sink StringCollector, relevant func(*httpmsg.Transaction) bool) *Collector {
	if relevant == nil {
		relevant = DefaultRelevance
	}
	return &Collector{
		sink:     sink,
		relevant: relevant,
		hostMap:  make(map[string]string),
		tokenMap: make(map[string]string),
	}
}

// DefaultRelevance treats a transaction as part of an authentication flow
// when it carries an Authorization header, any cookies, or a POSTed body.
func DefaultRelevance(tx *httpmsg.Transaction) bool {
	if _, ok := tx.RequestHeader.Get("Authorization"); ok {
		return true
	}
	if len(tx.RequestCookies()) > 0 || len(tx.ResponseCookies()) > 0 {
		return true
	}
	return tx.Method == http.MethodPost && len(tx.RequestBody) > 0
}

// SetEnabled turns the collector on or off. Disabling also clears the
// registered secrets.
func (c *Collector) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.username = ""
		c.password = ""
	}
}

// SetCredentials registers the username and password to replace with the
// fixed fake literals.
func (c *Collector) SetCredentials(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = password
}

// Reset clears the host and token pseudonym maps and both counters
// together, so pseudonym numbering restarts at zero.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostMap = make(map[string]string)
	c.tokenMap = make(map[string]string)
	c.hostID = 0
	c.tokenID = 0
}

// OnResponse is invoked by the host once per proxied response. When enabled
// and the transaction is relevant, it logs one fully-formed transcript
// block. The block is built up in one go so concurrent transactions are not
// interleaved in the sink.
func (c *Collector) OnResponse(tx *httpmsg.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.sink == nil || !c.relevant(tx) {
		return
	}

	var sb strings.Builder
	sb.WriteString(">>>>>\n")

	sb.WriteString(tx.Method)
	sb.WriteByte(' ')
	sb.WriteString(c.sanitizedHostLocked(hostKey(tx)))
	sb.WriteString(lastPathSegment(tx))
	sb.WriteByte('\n')

	c.appendExactHeaders(&sb, &tx.RequestHeader, "Content-Type")
	c.appendSanitizedHeaders(&sb, &tx.RequestHeader, "Authorization")
	c.appendRequestCookies(&sb, tx.RequestCookies())
	c.appendBody(&sb, tx, true)

	sb.WriteString("<<<\n")
	proto := tx.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	sb.WriteString(proto)
	sb.WriteByte(' ')
	sb.WriteString(tx.Status)
	sb.WriteByte('\n')

	c.appendExactHeaders(&sb, &tx.ResponseHeader, "Content-Type")
	c.appendSanitizedHeaders(&sb, &tx.ResponseHeader, "Authorization")
	c.appendSetCookies(&sb, tx.ResponseCookies())
	c.appendBody(&sb, tx, false)

	c.sink.Log(sb.String())
}

// appendExactHeaders writes the named headers unredacted; used for
// Content-Type, which carries no secrets and matters for diagnosis.
func (c *Collector) appendExactHeaders(sb *strings.Builder, h *httpmsg.Header, name string) {
	for _, value := range h.Values(name) {
		fmt.Fprintf(sb, "%s: %s\n", name, value)
	}
}

// appendSanitizedHeaders writes the named headers with values redacted.
// Bearer-style Authorization values keep the scheme keyword and redact the
// token; everything else is redacted wholesale.
func (c *Collector) appendSanitizedHeaders(sb *strings.Builder, h *httpmsg.Header, name string) {
	for _, value := range h.Values(name) {
		sb.WriteString(name)
		sb.WriteString(": ")
		if strings.EqualFold(name, "Authorization") &&
			strings.HasPrefix(strings.ToLower(value), "bearer") {
			offset := strings.IndexByte(value, ' ')
			if offset == -1 {
				offset = strings.IndexByte(value, ':')
			}
			if offset == -1 {
				sb.WriteString(c.sanitizedTokenLocked(value))
			} else {
				sb.WriteString(value[:offset])
				sb.WriteByte(' ')
				sb.WriteString(c.sanitizedTokenLocked(value[offset+1:]))
			}
		} else {
			sb.WriteString(c.sanitizedTokenLocked(value))
		}
		sb.WriteByte('\n')
	}
}

func (c *Collector) appendRequestCookies(sb *strings.Builder, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		fmt.Fprintf(sb, "Cookie: %s=%s\n", cookie.Name, c.sanitizedTokenLocked(cookie.Value))
	}
}

// appendSetCookies writes Set-Cookie lines with the value token-redacted
// and the domain attribute host-pseudonymized; other attributes pass
// through unchanged.
func (c *Collector) appendSetCookies(sb *strings.Builder, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		sb.WriteString("Set-Cookie: ")
		sb.WriteString(cookie.Name)
		sb.WriteByte('=')
		sb.WriteString(c.sanitizedTokenLocked(cookie.Value))
		if cookie.Path != "" {
			sb.WriteString("; Path=")
			sb.WriteString(cookie.Path)
		}
		if cookie.Domain != "" {
			sb.WriteString("; Domain=")
			sb.WriteString(c.sanitizedHostLocked(cookie.Domain))
		}
		if cookie.Secure {
			sb.WriteString("; Secure")
		}
		if cookie.HttpOnly {
			sb.WriteString("; HttpOnly")
		}
		sb.WriteByte('\n')
	}
}

// appendBody writes the redacted request or response body: JSON bodies are
// walked recursively with every string leaf token-redacted, form bodies get
// each parameter value redacted, anything else is omitted.
func (c *Collector) appendBody(sb *strings.Builder, tx *httpmsg.Transaction, isRequest bool) {
	header := &tx.ResponseHeader
	body := tx.ResponseBody
	if isRequest {
		header = &tx.RequestHeader
		body = tx.RequestBody
	}

	ct, _ := header.Get("Content-Type")
	switch {
	case strings.Contains(strings.ToLower(ct), "json"):
		var value any
		if err := jsonutil.Unmarshal(body, &value); err != nil {
			sb.WriteString("\n<<Failed to parse JSON>>\n")
			return
		}
		out, err := jsonutil.Marshal(c.sanitizeJSONLocked(value))
		if err != nil {
			sb.WriteString("\n<<Failed to parse JSON>>\n")
			return
		}
		sb.WriteByte('\n')
		sb.Write(out)
		sb.WriteByte('\n')

	case isRequest && tx.Method == http.MethodPost:
		params := tx.FormParams()
		if len(params) == 0 {
			return
		}
		sb.WriteByte('\n')
		for _, name := range sortedKeys(params) {
			for _, v := range params[name] {
				sb.WriteString(name)
				sb.WriteByte('=')
				sb.WriteString(c.sanitizedTokenLocked(v))
				sb.WriteByte('&')
			}
		}
		sb.WriteByte('\n')
	}
}

// sanitizeJSONLocked walks a decoded JSON value, redacting every string
// leaf and passing non-string leaves through unchanged.
func (c *Collector) sanitizeJSONLocked(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = c.sanitizeJSONLocked(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = c.sanitizeJSONLocked(e)
		}
		return out
	case string:
		return c.sanitizedTokenLocked(v)
	default:
		return value
	}
}

// sanitizedHostLocked maps a host to its stable pseudonym, assigning the
// next index on first sight. Caller must hold c.mu.
func (c *Collector) sanitizedHostLocked(host string) string {
	if p, ok := c.hostMap[host]; ok {
		return p
	}
	p := fmt.Sprintf("https://example%d/", c.hostID)
	c.hostID++
	c.hostMap[host] = p
	return p
}

// sanitizedTokenLocked maps a token literal to its stable pseudonym. The
// registered secrets map to the fixed fake literals regardless of map
// state. Caller must hold c.mu.
func (c *Collector) sanitizedTokenLocked(token string) string {
	if token != "" && token == c.username {
		return FakeUsername
	}
	if token != "" && token == c.password {
		return FakePassword
	}
	if p, ok := c.tokenMap[token]; ok {
		return p
	}
	p := fmt.Sprintf("sanitizedtoken%d", c.tokenID)
	c.tokenID++
	c.tokenMap[token] = p
	return p
}

// hostKey identifies the request's host for pseudonymization.
func hostKey(tx *httpmsg.Transaction) string {
	if tx.URL == nil {
		return ""
	}
	return tx.URL.Scheme + "://" + tx.URL.Host
}

// lastPathSegment returns the final segment of the request path, or the
// whole path when it ends in a directory.
func lastPathSegment(tx *httpmsg.Transaction) string {
	if tx.URL == nil {
		return ""
	}
	p := tx.URL.Path
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 && idx < len(p)-1 {
		return p[idx+1:]
	}
	return strings.TrimPrefix(p, "/")
}

func sortedKeys(values map[string][]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// Deterministic transcript ordering.
	sort.Strings(keys)
	return keys
}
