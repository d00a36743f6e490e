package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/auth"
	"github.com/reelboard/reelboard/internal/models"
)

type logLine struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Status int    `json:"status"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func TestLoggerAttributesAuthenticatedCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	authn := auth.New("logging-test-secret")
	const userID = "7c9a1f00-0000-4000-8000-000000000001"
	token, err := authn.Issue(userID, "Maya", models.RoleManager)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := Logger(logger)(NewAuthMiddleware(authn).RequireAuth(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	req := httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line logLine
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line.UserID != userID || line.Role != "manager" {
		t.Fatalf("caller not attributed: %+v", line)
	}
	if line.Method != "GET" || line.Path != "/tasks" || line.Status != http.StatusOK {
		t.Fatalf("unexpected request fields: %+v", line)
	}
}

func TestLoggerOmitsCallerForAnonymousRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if strings.Contains(buf.String(), "user_id") {
		t.Fatalf("anonymous request logged a caller: %s", buf.String())
	}
}

func TestLoggerUsesErrorLevelForServerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/stats", nil))

	var line struct {
		Level  string `json:"level"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line.Level != "error" || line.Status != http.StatusInternalServerError {
		t.Fatalf("expected error-level line, got %+v", line)
	}
}
