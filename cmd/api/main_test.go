package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/FolioAI/folio-mvp/engine/chat"
	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/pkg/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		resp *chat.Response
		want int
	}{
		{"no rejection", &chat.Response{}, http.StatusOK},
		{"invalid query", &chat.Response{Rejection: &domain.Rejection{Kind: domain.RejectInvalid}}, http.StatusBadRequest},
		{"time gated", &chat.Response{Rejection: &domain.Rejection{Kind: domain.RejectTimeGated}}, http.StatusForbidden},
		{"prohibited topic", &chat.Response{Rejection: &domain.Rejection{Kind: domain.RejectProhibited}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.resp); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		name string
		resp *chat.Response
		want string
	}{
		{"rejection uses kind", &chat.Response{Rejection: &domain.Rejection{Kind: domain.RejectProhibited}}, "prohibited_topic"},
		{"cache hit", &chat.Response{Cached: true}, "cached"},
		{"full match", &chat.Response{MatchType: "full"}, "match_full"},
		{"no match", &chat.Response{MatchType: "none"}, "match_none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeLabel(tt.resp); got != tt.want {
				t.Errorf("outcomeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestHandleChatRejectsBadBody(t *testing.T) {
	// Decoding fails before the pipeline runs, so no service is needed.
	h := handleChat(nil, metrics.New(), discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("EMBED_DIMS")
	os.Unsetenv("CACHE_TTL")

	cfg := loadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.EmbedDims != 768 {
		t.Errorf("EmbedDims = %d, want 768", cfg.EmbedDims)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FOLIO_TEST_STR", "hello")
	t.Setenv("FOLIO_TEST_INT", "42")
	t.Setenv("FOLIO_TEST_BAD_INT", "nope")
	t.Setenv("FOLIO_TEST_BOOL", "true")
	t.Setenv("FOLIO_TEST_DUR", "90s")

	if got := envOr("FOLIO_TEST_STR", "x"); got != "hello" {
		t.Errorf("envOr set = %q", got)
	}
	if got := envOr("FOLIO_TEST_MISSING", "x"); got != "x" {
		t.Errorf("envOr fallback = %q", got)
	}
	if got := envInt("FOLIO_TEST_INT", 0); got != 42 {
		t.Errorf("envInt = %d", got)
	}
	if got := envInt("FOLIO_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("envInt bad value = %d, want fallback", got)
	}
	if got := envBool("FOLIO_TEST_BOOL", false); !got {
		t.Error("envBool = false, want true")
	}
	if got := envDur("FOLIO_TEST_DUR", 0); got != 90*time.Second {
		t.Errorf("envDur = %v", got)
	}
}
