package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscreener/finscreener-mcp/internal/config"
	apperrors "github.com/finscreener/finscreener-mcp/internal/errors"
	"github.com/finscreener/finscreener-mcp/internal/output"
	"github.com/finscreener/finscreener-mcp/internal/tools"
)

func TestParseCallArgs(t *testing.T) {
	args, err := parseCallArgs(`{"query":"acme","limit":3}`, []string{"state=Kerala", "limit:=5", "query = spaced"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"query": " spaced",
		"limit": float64(5),
		"state": "Kerala",
	}, args)

	args, err = parseCallArgs("", []string{"items:=[{\"number\":\"X\"}]", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"number": "X"}}, args["items"])
	assert.Equal(t, "a=b", args["note"])

	args, err = parseCallArgs("null", nil)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParseCallArgsErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		raw   string
		pairs []string
	}{
		"json array":    {raw: `[1,2]`},
		"missing equal": {pairs: []string{"query"}},
		"empty key":     {pairs: []string{"=x"}},
		"bad json pair": {pairs: []string{"limit:=five"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseCallArgs(tc.raw, tc.pairs)
			require.Error(t, err)
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, foundry.ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(errors.New("boom")))
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(withExitCode(foundry.ExitConfigInvalid, errors.New("bad"))))
	assert.Equal(t, foundry.ExitUsage, ExitCodeFor(fmt.Errorf("wrapped: %w", withExitCode(foundry.ExitUsage, nil))))

	info, ok := foundry.GetExitCodeInfo(foundry.ExitUsage)
	require.True(t, ok)
	assert.Equal(t, info.Description, withExitCode(foundry.ExitUsage, nil).Error())
	assert.Equal(t, "bad", withExitCode(foundry.ExitConfigInvalid, errors.New("bad")).Error())
}

func TestExitFieldsCarryEnvelope(t *testing.T) {
	info, ok := foundry.GetExitCodeInfo(foundry.ExitFailure)
	require.True(t, ok)

	envelope := apperrors.WrapInternal(context.Background(), errors.New("listener died"), "server error")
	fields := exitFields(info, envelope)

	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f.Key] = true
	}
	for _, key := range []string{"exit_code", "exit_name", "error_code", "correlation_id", "error_context", "error"} {
		assert.True(t, keys[key], key)
	}
}

func TestListenForSignalsCancelsOnShutdown(t *testing.T) {
	mgr := signals.NewManager()
	ctx, stop := listenForSignals(context.Background(), mgr)
	defer stop()

	injector := signals.NewInjector(mgr)
	require.NoError(t, injector.WaitForListen(time.Second))
	require.NoError(t, injector.Inject(syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestFilterTools(t *testing.T) {
	assert.Len(t, filterTools(tools.AllTools, ""), len(tools.AllTools))

	crm := filterTools(tools.AllTools, " CRM ")
	require.Len(t, crm, 3)
	for _, spec := range crm {
		assert.Equal(t, "crm", spec.Category)
	}

	assert.Empty(t, filterTools(tools.AllTools, "billing"))
}

func TestRenderToolTable(t *testing.T) {
	spec, ok := tools.SpecByName("delete_watchlist")
	require.True(t, ok)

	var buf bytes.Buffer
	renderToolTable(&buf, []tools.ToolSpec{spec})

	out := buf.String()
	assert.Contains(t, out, "delete_watchlist")
	assert.Contains(t, out, "destructive")
	assert.Contains(t, out, "1 TOOLS")
}

func TestWriteRedactedConfig(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{BaseURL: "https://api.example.test", Key: "fsk_live_secret_value"}}

	var buf bytes.Buffer
	require.NoError(t, writeRedactedConfig(&buf, cfg))

	out := buf.String()
	assert.Contains(t, out, "base_url: https://api.example.test")
	assert.NotContains(t, out, "fsk_live_secret_value")
	assert.Contains(t, out, "fsk_****ue")
}

func newTestRuntime(t *testing.T, handler http.HandlerFunc, format output.Format) *appRuntime {
	t.Helper()
	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{API: config.APIConfig{
		BaseURL:         upstream.URL,
		Key:             "pre-issued-token",
		Timeout:         5 * time.Second,
		AuthTimeout:     5 * time.Second,
		TokenTTL:        50 * time.Minute,
		ScreenerTimeout: 5 * time.Second,
	}}
	return newRuntime(cfg, format, nil)
}

func TestCallToolEndToEnd(t *testing.T) {
	authCh := make(chan string, 1)
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/company/details" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
			return
		}
		authCh <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"CIN":"L12345","company":"Acme & Sons"}}`))
	}, output.FormatJSON)

	text, isError, err := callTool(context.Background(), rt.toolset, "get_company_details", map[string]any{"cin": "L12345"})
	require.NoError(t, err)
	assert.False(t, isError)
	assert.Contains(t, text, `"Acme & Sons"`)
	assert.Equal(t, "Bearer pre-issued-token", <-authCh)
}

func TestCallToolReportsFailure(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Company not found"}`))
	}, output.FormatMarkdown)

	text, isError, err := callTool(context.Background(), rt.toolset, "get_company_details", map[string]any{"cin": "nope"})
	require.NoError(t, err)
	assert.True(t, isError)
	assert.True(t, strings.HasPrefix(text, "Error:"), text)
	assert.Contains(t, text, "Company not found")
}

func TestCredentialsChecker(t *testing.T) {
	rt := newTestRuntime(t, func(w http.ResponseWriter, r *http.Request) {}, output.FormatJSON)
	require.NoError(t, rt.credentialsChecker()(context.Background()))

	cfg := *rt.cfg
	cfg.API.Key = ""
	keyless := newRuntime(&cfg, output.FormatJSON, nil)
	err := keyless.credentialsChecker()(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key configured")
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.4.2", "abc1234", "2026-01-02")
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--extended"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		extended = false
	})

	require.NoError(t, Execute())

	out := buf.String()
	assert.Contains(t, out, "finscreener-mcp 1.4.2\n")
	assert.Contains(t, out, "Commit: abc1234")
	assert.Contains(t, out, "MCP go-sdk:")
}
