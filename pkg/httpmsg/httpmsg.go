// Package httpmsg provides the normalized HTTP transaction model that scan
// rules inspect. A Transaction is a captured request/response pair owned by
// the host; rules only read it, except active rules which construct new
// transactions to send through the host transport.
package httpmsg

import (
	"net/http"
	"net/url"
	"strings"
)

// Field is a single header line. Order and original casing are preserved so
// evidence can be extracted verbatim from the rendered header block.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered, case-insensitive collection of header fields.
type Header struct {
	fields []Field
}

// Add appends a field, preserving insertion order.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Set replaces all fields with the given name (case-insensitive) by a single
// field, or appends one if absent.
func (h *Header) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Del removes all fields with the given name (case-insensitive).
func (h *Header) Del(name string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// Get returns the value of the first field with the given name
// (case-insensitive). The second return reports whether the field exists,
// so callers can distinguish an absent header from an empty value.
func (h *Header) Get(name string) (string, bool) {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns the values of all fields with the given name, in order.
func (h *Header) Values(name string) []string {
	var out []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Fields returns the header fields in order. The returned slice is a copy.
func (h *Header) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}

// Len returns the number of header fields.
func (h *Header) Len() int {
	return len(h.fields)
}

// String renders the header block exactly as it would appear on the wire,
// one "Name: Value\r\n" line per field. Evidence strings cut from this block
// are verbatim substrings of it.
func (h *Header) String() string {
	var sb strings.Builder
	for _, f := range h.fields {
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
		sb.WriteString("\r\n")
	}
	return sb.String()
}

// Clone returns a deep copy of the header.
func (h *Header) Clone() Header {
	fields := make([]Field, len(h.fields))
	copy(fields, h.fields)
	return Header{fields: fields}
}

// Transaction is an immutable view of one HTTP request/response pair.
type Transaction struct {
	Method        string
	URL           *url.URL
	RequestHeader Header
	RequestBody   []byte

	Proto          string // response protocol version, e.g. "HTTP/1.1"
	StatusCode     int
	Status         string // status code and reason phrase, e.g. "200 OK"
	ResponseHeader Header
	ResponseBody   []byte
}

// New creates a transaction for the given method and URL. Active rules use
// this to synthesize follow-up requests.
func New(method, rawURL string) (*Transaction, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &Transaction{Method: method, URL: u}, nil
}

// QueryParams returns the decoded URL query parameters. Undecodable
// parameters are dropped rather than failing the whole parse.
func (t *Transaction) QueryParams() url.Values {
	if t.URL == nil {
		return url.Values{}
	}
	return lenientParseQuery(t.URL.RawQuery)
}

// FormParams returns the request body parameters when the request carries a
// form-encoded body, or an empty set otherwise.
func (t *Transaction) FormParams() url.Values {
	ct, _ := t.RequestHeader.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "application/x-www-form-urlencoded") {
		return url.Values{}
	}
	return lenientParseQuery(string(t.RequestBody))
}

// lenientParseQuery parses a query string, keeping the pairs that decode
// cleanly and skipping the rest.
func lenientParseQuery(query string) url.Values {
	values := url.Values{}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		dn, err := url.QueryUnescape(name)
		if err != nil {
			continue
		}
		dv, err := url.QueryUnescape(value)
		if err != nil {
			// Keep the raw value; rules that care about encodings
			// decode it themselves.
			dv = value
		}
		values.Add(dn, dv)
	}
	return values
}

// RequestCookies parses the request Cookie headers.
func (t *Transaction) RequestCookies() []*http.Cookie {
	var cookies []*http.Cookie
	for _, line := range t.RequestHeader.Values("Cookie") {
		parsed, err := http.ParseCookie(line)
		if err != nil {
			continue
		}
		cookies = append(cookies, parsed...)
	}
	return cookies
}

// ResponseCookies parses the response Set-Cookie headers.
func (t *Transaction) ResponseCookies() []*http.Cookie {
	var cookies []*http.Cookie
	for _, line := range t.ResponseHeader.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		cookies = append(cookies, c)
	}
	return cookies
}

// SetRequestCookies replaces the request Cookie header with the given
// cookies, rendered as a single header line.
func (t *Transaction) SetRequestCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		t.RequestHeader.Del("Cookie")
		return
	}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	t.RequestHeader.Set("Cookie", strings.Join(parts, "; "))
}

// HasResponseType reports whether the response Content-Type contains the
// given substring (case-insensitive), e.g. "json" or "html".
func (t *Transaction) HasResponseType(substr string) bool {
	ct, ok := t.ResponseHeader.Get("Content-Type")
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(ct), strings.ToLower(substr))
}

// URI returns the request URL as a string, or "" when unset.
func (t *Transaction) URI() string {
	if t.URL == nil {
		return ""
	}
	return t.URL.String()
}
