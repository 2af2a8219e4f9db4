package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/rulehound/rulehound/pkg/httpmsg"
	"github.com/rulehound/rulehound/pkg/iohelper"
)

// Sender adapts an *http.Client to the transport contract active rules
// depend on: it transmits a transaction and returns a copy completed with
// the response.
type Sender struct {
	client *http.Client

	// MaxBodySize bounds how much of a response body is retained.
	MaxBodySize int64
}

// NewSender creates a Sender over the given client, or the shared Default()
// client when nil.
func NewSender(client *http.Client) *Sender {
	if client == nil {
		client = Default()
	}
	return &Sender{client: client, MaxBodySize: iohelper.DefaultMaxBodySize}
}

// Send transmits the transaction and returns a new transaction carrying the
// response. The request half of the input is never mutated.
func (s *Sender) Send(ctx context.Context, tx *httpmsg.Transaction, followRedirects bool) (*httpmsg.Transaction, error) {
	if tx.URL == nil {
		return nil, fmt.Errorf("send: transaction has no URL")
	}

	var body io.Reader
	if len(tx.RequestBody) > 0 {
		body = bytes.NewReader(tx.RequestBody)
	}
	req, err := http.NewRequestWithContext(ctx, tx.Method, tx.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	for _, f := range tx.RequestHeader.Fields() {
		req.Header.Add(f.Name, f.Value)
	}

	client := s.client
	if followRedirects {
		// Shallow copy with the default redirect policy restored.
		redirecting := *client
		redirecting.CheckRedirect = nil
		client = &redirecting
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	maxBody := s.MaxBodySize
	if maxBody <= 0 {
		maxBody = iohelper.DefaultMaxBodySize
	}
	respBody, err := iohelper.ReadBody(resp.Body, maxBody)
	if err != nil {
		return nil, fmt.Errorf("send: reading body: %w", err)
	}

	out := &httpmsg.Transaction{
		Method:        tx.Method,
		URL:           tx.URL,
		RequestHeader: tx.RequestHeader.Clone(),
		RequestBody:   tx.RequestBody,
		Proto:         resp.Proto,
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		ResponseBody:  respBody,
	}
	for _, name := range sortedHeaderNames(resp.Header) {
		for _, v := range resp.Header[name] {
			out.ResponseHeader.Add(name, v)
		}
	}
	return out, nil
}

// sortedHeaderNames returns the response header names in a stable order;
// net/http stores them in a map, so wire order is already lost.
func sortedHeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
