package tools

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/finscreener/finscreener-mcp/internal/core/api"
	"github.com/finscreener/finscreener-mcp/internal/output"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type reply struct {
	status int
	body   string
}

// upstream is a fake API that answers by "METHOD /path" and records every
// request it sees. Unknown routes answer 404.
type upstream struct {
	mu       sync.Mutex
	routes   map[string]reply
	requests []recordedRequest
}

func newUpstream(t *testing.T, routes map[string]reply) (*upstream, *api.Client) {
	t.Helper()
	u := &upstream{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(srv.Close)
	return u, api.NewClient(api.Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.requests = append(u.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
	})
	rep, ok := u.routes[r.Method+" "+r.URL.Path]
	u.mu.Unlock()

	if !ok {
		rep = reply{status: http.StatusNotFound, body: `{"detail":"Not Found"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (u *upstream) seen() []recordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]recordedRequest(nil), u.requests...)
}

func jsonOK(body string) reply {
	return reply{status: http.StatusOK, body: body}
}

func newTestToolset(t *testing.T, routes map[string]reply) (*Toolset, *upstream) {
	t.Helper()
	u, client := newUpstream(t, routes)
	return NewToolset(client, Options{Format: output.FormatJSON}), u
}
