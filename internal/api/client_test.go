package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/mailtm/client-go/internal/apierrors"
)

func TestNewClient_DefaultValues(t *testing.T) {
	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %s, want %s", client.BaseURL(), DefaultBaseURL)
	}
	if client.HTTPClient() == nil {
		t.Fatal("HTTPClient() is nil")
	}
	if client.HTTPClient().Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.HTTPClient().Timeout, DefaultTimeout)
	}
	if client.Token() != "" {
		t.Errorf("Token() = %q, want empty", client.Token())
	}
	if client.metrics != nil {
		t.Error("metrics should be disabled without a registerer")
	}
}

func TestNewClient_RejectsInvalidBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "ftp://example.com"})
	if err == nil {
		t.Error("expected error for non-http base URL")
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://example.com/"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.BaseURL() != "https://example.com" {
		t.Errorf("BaseURL() = %s, want https://example.com", client.BaseURL())
	}
}

func TestNewClient_CustomHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 99 * time.Second}

	client, err := NewClient(Config{HTTPClient: custom, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.HTTPClient() != custom {
		t.Error("HTTPClient() did not return the custom client")
	}
	if custom.Timeout != 99*time.Second {
		t.Errorf("custom client timeout changed to %v", custom.Timeout)
	}
}

func TestNew_WithOptions(t *testing.T) {
	client, err := New(
		WithBaseURL("https://example.com"),
		WithTimeout(60*time.Second),
		WithToken("tok"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.BaseURL() != "https://example.com" {
		t.Errorf("BaseURL() = %s, want https://example.com", client.BaseURL())
	}
	if client.HTTPClient().Timeout != 60*time.Second {
		t.Errorf("timeout = %v, want 60s", client.HTTPClient().Timeout)
	}
	if client.Token() != "tok" {
		t.Errorf("Token() = %q, want tok", client.Token())
	}
}

func TestClient_Do_DefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %s, want application/json", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", got)
		}
		if got := r.Header.Get("User-Agent"); got != "custom-agent" {
			t.Errorf("User-Agent = %s, want custom-agent", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none before a token is set", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL, UserAgent: "custom-agent"})

	var result struct{ OK bool }
	if err := client.Do(context.Background(), http.MethodGet, "/test", nil, &result); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !result.OK {
		t.Error("result.OK = false, want true")
	}
}

func TestClient_Do_BearerTokenAfterSetToken(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL})
	ctx := context.Background()

	_ = client.Do(ctx, http.MethodGet, "/a", nil, nil)
	client.SetToken("jwt-123")
	_ = client.Do(ctx, http.MethodGet, "/b", nil, nil)
	_ = client.Do(ctx, http.MethodDelete, "/c", nil, nil)
	client.SetToken("")
	_ = client.Do(ctx, http.MethodGet, "/d", nil, nil)

	want := []string{"", "Bearer jwt-123", "Bearer jwt-123", ""}
	if len(seen) != len(want) {
		t.Fatalf("requests = %d, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestClient_Do_WithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body Credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"received": body.Address})
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL})

	var result struct{ Received string }
	err := client.Do(context.Background(), http.MethodPost, "/test", Credentials{Address: "a@b.c", Password: "p"}, &result)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if result.Received != "a@b.c" {
		t.Errorf("result.Received = %s, want a@b.c", result.Received)
	}
}

func TestClient_Do_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL})

	var result map[string]any
	if err := client.Do(context.Background(), http.MethodDelete, "/test", nil, &result); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if result != nil {
		t.Errorf("result = %v, want untouched", result)
	}
}

func TestClient_Do_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL})

	var result Account
	err := client.Do(context.Background(), http.MethodGet, "/me", nil, &result)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "failed to decode response") {
		t.Errorf("error = %v, want decode error", err)
	}
}

func TestClient_Do_NoRetry(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(status)
			}))
			defer server.Close()

			client, _ := NewClient(Config{BaseURL: server.URL})

			if err := client.Do(context.Background(), http.MethodGet, "/test", nil, nil); err == nil {
				t.Fatal("expected error")
			}
			if got := atomic.LoadInt32(&attempts); got != 1 {
				t.Errorf("attempts = %d, want 1", got)
			}
		})
	}
}

func TestClient_Do_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Do(ctx, http.MethodGet, "/test", nil, nil)
	var netErr *apierrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T (%v)", err, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should unwrap to context.Canceled: %v", err)
	}
}

func TestClient_Do_ErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantMessage string
		wantViol    int
	}{
		{
			name:        "jwt unauthorized",
			statusCode:  401,
			body:        `{"code":401,"message":"Invalid credentials."}`,
			wantMessage: "Invalid credentials.",
		},
		{
			name:        "hydra violation list",
			statusCode:  422,
			body:        `{"@type":"ConstraintViolationList","hydra:title":"An error occurred","hydra:description":"address: This value is already used.","violations":[{"propertyPath":"address","message":"This value is already used."}]}`,
			wantMessage: "address: This value is already used.",
			wantViol:    1,
		},
		{
			name:        "problem detail",
			statusCode:  404,
			body:        `{"title":"An error occurred","detail":"Not Found"}`,
			wantMessage: "Not Found",
		},
		{
			name:        "plain text",
			statusCode:  429,
			body:        "Too Many Requests\n",
			wantMessage: "Too Many Requests",
		},
		{
			name:       "empty body",
			statusCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient(Config{BaseURL: server.URL})

			err := client.Do(context.Background(), http.MethodGet, "/test", nil, nil)
			var apiErr *apierrors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.statusCode)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if len(apiErr.Violations) != tt.wantViol {
				t.Errorf("Violations = %d, want %d", len(apiErr.Violations), tt.wantViol)
			}
		})
	}
}

func TestClient_Logger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	client, _ := NewClient(Config{BaseURL: server.URL, Logger: &logger})

	if err := client.Do(context.Background(), http.MethodDelete, "/messages/1", nil, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("log output is not a JSON event: %q", buf.String())
	}
	if event["method"] != "DELETE" || event["route"] != "/messages/1" {
		t.Errorf("unexpected log event: %v", event)
	}
	if event["status_code"] != float64(204) {
		t.Errorf("status_code = %v, want 204", event["status_code"])
	}
}

func TestClient_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	client, err := NewClient(Config{BaseURL: server.URL, Registerer: reg})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	// A second client on the same registry reuses the collectors.
	second, err := NewClient(Config{BaseURL: server.URL, Registerer: reg})
	if err != nil {
		t.Fatalf("second NewClient() error = %v", err)
	}

	ctx := context.Background()
	_, _ = client.GetMessages(ctx, 0)
	_, _ = second.GetMessages(ctx, 0)
	_ = client.Do(ctx, http.MethodGet, "/missing", nil, nil)

	if got := testutil.ToFloat64(client.metrics.requests.WithLabelValues("GET", "/messages", "200")); got != 2 {
		t.Errorf("GET /messages 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(client.metrics.requests.WithLabelValues("GET", "/missing", "404")); got != 1 {
		t.Errorf("GET /missing 404 = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(client.metrics.duration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestClient_Concurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, _ := NewClient(Config{BaseURL: server.URL})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			client.SetToken(fmt.Sprintf("tok-%d", i))
			_ = client.Do(context.Background(), http.MethodGet, "/me", nil, nil)
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if !strings.HasPrefix(client.Token(), "tok-") {
		t.Errorf("Token() = %q", client.Token())
	}
}

// ExampleNewClient demonstrates creating an API client with struct-based configuration.
func ExampleNewClient() {
	client, err := NewClient(Config{
		BaseURL: "https://api.mail.tm",
		Timeout: 30 * time.Second,
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Client created for: %s\n", client.BaseURL())
	// Output: Client created for: https://api.mail.tm
}

// ExampleNew demonstrates creating an API client with functional options.
func ExampleNew() {
	client, err := New(
		WithBaseURL("https://api.mail.tm/"),
		WithTimeout(60*time.Second),
	)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Client created for: %s\n", client.BaseURL())
	// Output: Client created for: https://api.mail.tm
}
