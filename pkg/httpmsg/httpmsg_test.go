package httpmsg

import (
	"strings"
	"testing"
)

func TestHeaderCaseInsensitiveGet(t *testing.T) {
	var h Header
	h.Add("Content-Type", "text/html")

	if v, ok := h.Get("content-type"); !ok || v != "text/html" {
		t.Errorf("Get(content-type) = %q, %v; want text/html, true", v, ok)
	}
	if v, ok := h.Get("CONTENT-TYPE"); !ok || v != "text/html" {
		t.Errorf("Get(CONTENT-TYPE) = %q, %v; want text/html, true", v, ok)
	}
	if _, ok := h.Get("X-Missing"); ok {
		t.Error("Get(X-Missing) should report absent")
	}
}

func TestHeaderDistinguishesAbsentFromEmpty(t *testing.T) {
	var h Header
	h.Add("X-Empty", "")

	if v, ok := h.Get("X-Empty"); !ok || v != "" {
		t.Errorf("expected present empty value, got %q, %v", v, ok)
	}
}

func TestHeaderPreservesOrder(t *testing.T) {
	var h Header
	h.Add("B", "2")
	h.Add("A", "1")
	h.Add("B", "3")

	fields := h.Fields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Name != "B" || fields[1].Name != "A" || fields[2].Name != "B" {
		t.Errorf("order not preserved: %v", fields)
	}
	if got := h.Values("b"); len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("Values(b) = %v, want [2 3]", got)
	}
}

func TestHeaderString(t *testing.T) {
	var h Header
	h.Add("Content-Type", "text/html")
	h.Add("X-Frame-Options", "DENY")

	want := "Content-Type: text/html\r\nX-Frame-Options: DENY\r\n"
	if got := h.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestHeaderSetReplacesAllValues(t *testing.T) {
	var h Header
	h.Add("Cookie", "a=1")
	h.Add("Cookie", "b=2")
	h.Set("Cookie", "c=3")

	if got := h.Values("cookie"); len(got) != 1 || got[0] != "c=3" {
		t.Errorf("Values = %v, want [c=3]", got)
	}
}

func TestHeaderCloneIsIndependent(t *testing.T) {
	var h Header
	h.Add("A", "1")
	clone := h.Clone()
	clone.Add("B", "2")

	if h.Len() != 1 {
		t.Errorf("original header mutated by clone, len = %d", h.Len())
	}
}

func TestNewTransaction(t *testing.T) {
	tx, err := New("GET", "https://example.com/profile.html?foo=bar")
	if err != nil {
		t.Fatal(err)
	}
	if tx.URL.Path != "/profile.html" {
		t.Errorf("path = %q", tx.URL.Path)
	}
	if tx.URI() != "https://example.com/profile.html?foo=bar" {
		t.Errorf("URI() = %q", tx.URI())
	}

	if _, err := New("GET", "://bad"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestQueryParams(t *testing.T) {
	t.Run("decodes values", func(t *testing.T) {
		tx, _ := New("GET", "https://example.com/a?q=one%20two&p=&m")
		params := tx.QueryParams()
		if got := params.Get("q"); got != "one two" {
			t.Errorf("q = %q", got)
		}
		if _, ok := params["p"]; !ok {
			t.Error("empty-valued parameter dropped")
		}
	})

	t.Run("keeps raw value on bad escape", func(t *testing.T) {
		tx, _ := New("GET", "https://example.com/a")
		tx.URL.RawQuery = "q=%zz&ok=1"
		params := tx.QueryParams()
		if got := params.Get("ok"); got != "1" {
			t.Errorf("sibling parameter lost: ok = %q", got)
		}
		if got := params.Get("q"); got != "%zz" {
			t.Errorf("q = %q, want raw %%zz", got)
		}
	})
}

func TestFormParams(t *testing.T) {
	tx, _ := New("POST", "https://example.com/login")
	tx.RequestHeader.Set("Content-Type", "application/x-www-form-urlencoded")
	tx.RequestBody = []byte("user=alice&pass=s3cret")

	params := tx.FormParams()
	if params.Get("user") != "alice" || params.Get("pass") != "s3cret" {
		t.Errorf("params = %v", params)
	}

	tx.RequestHeader.Set("Content-Type", "application/json")
	if len(tx.FormParams()) != 0 {
		t.Error("non-form content type should yield no form params")
	}
}

func TestRequestCookies(t *testing.T) {
	tx, _ := New("GET", "https://example.com/")
	tx.RequestHeader.Add("Cookie", "session=abc123; theme=dark")

	cookies := tx.RequestCookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != "session" || cookies[0].Value != "abc123" {
		t.Errorf("first cookie = %+v", cookies[0])
	}
}

func TestSetRequestCookies(t *testing.T) {
	tx, _ := New("GET", "https://example.com/")
	src, _ := New("GET", "https://example.com/")
	src.RequestHeader.Add("Cookie", "a=1; b=2")

	tx.SetRequestCookies(src.RequestCookies())
	line, ok := tx.RequestHeader.Get("Cookie")
	if !ok || !strings.Contains(line, "a=1") || !strings.Contains(line, "b=2") {
		t.Errorf("Cookie header = %q", line)
	}

	tx.SetRequestCookies(nil)
	if _, ok := tx.RequestHeader.Get("Cookie"); ok {
		t.Error("Cookie header should be removed for empty set")
	}
}

func TestResponseCookies(t *testing.T) {
	tx, _ := New("GET", "https://example.com/")
	tx.ResponseHeader.Add("Set-Cookie", "sid=xyz; Path=/; Domain=example.com; HttpOnly")
	tx.ResponseHeader.Add("Set-Cookie", "not a cookie")

	cookies := tx.ResponseCookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 parsable cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sid" || c.Value != "xyz" || c.Domain != "example.com" || !c.HttpOnly {
		t.Errorf("cookie = %+v", c)
	}
}

func TestHasResponseType(t *testing.T) {
	tx, _ := New("GET", "https://example.com/")
	tx.ResponseHeader.Set("Content-Type", "Application/JSON; charset=utf-8")

	if !tx.HasResponseType("json") {
		t.Error("expected json content type match")
	}
	if tx.HasResponseType("html") {
		t.Error("unexpected html match")
	}
}
