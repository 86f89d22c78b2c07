package mailtm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeService is an in-memory stand-in for the mail.tm REST API.
type fakeService struct {
	mu       sync.Mutex
	domains  []Domain
	accounts map[string]*fakeAccount // keyed by address
	tokens   map[string]*fakeAccount // keyed by token
	hydra    bool
	requests []recordedRequest
	nextID   int
}

type fakeAccount struct {
	account  Account
	password string
	messages []Message
}

type recordedRequest struct {
	Method      string
	Path        string
	Query       string
	Auth        string
	ContentType string
	Body        string
}

func newFakeService() *fakeService {
	return &fakeService{
		domains: []Domain{
			{ID: "dom-1", Domain: "inactive.test", IsActive: false},
			{ID: "dom-2", Domain: "mail.test", IsActive: true},
		},
		accounts: make(map[string]*fakeAccount),
		tokens:   make(map[string]*fakeAccount),
	}
}

// newTestClient starts svc behind an httptest server and returns a client
// bound to it.
func newTestClient(t *testing.T, svc *fakeService, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	client, err := New(append([]Option{WithBaseURL(server.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// addAccount registers an account directly and returns it.
func (s *fakeService) addAccount(address, password string) *fakeAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccountLocked(address, password)
}

func (s *fakeService) addAccountLocked(address, password string) *fakeAccount {
	s.nextID++
	acc := &fakeAccount{
		account: Account{
			ID:        fmt.Sprintf("acc-%d", s.nextID),
			Address:   address,
			Quota:     40000000,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
		password: password,
	}
	s.accounts[address] = acc
	return acc
}

// deliver adds a message to the inbox of address and returns its id.
func (s *fakeService) deliver(address, from, subject string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[address]
	s.nextID++
	msg := Message{
		MessageSummary: MessageSummary{
			ID:        fmt.Sprintf("msg-%d", s.nextID),
			AccountID: acc.account.ID,
			From:      Address{Address: from, Name: "Sender"},
			To:        []Address{{Address: address}},
			Subject:   subject,
			Intro:     "Hello",
			CreatedAt: time.Now().UTC(),
		},
		Text: "Hello from " + from,
		HTML: []string{"<p>Hello</p>"},
	}
	// newest first
	acc.messages = append([]Message{msg}, acc.messages...)
	return msg.ID
}

func (s *fakeService) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func (s *fakeService) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /domains", func(w http.ResponseWriter, r *http.Request) {
		s.writeCollection(w, s.domains)
	})
	mux.HandleFunc("GET /domains/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, d := range s.domains {
			if d.ID == r.PathValue("id") {
				writeJSON(w, http.StatusOK, d)
				return
			}
		}
		writeNotFound(w)
	})
	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Address  string `json:"address"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON"})
			return
		}
		if _, ok := s.accounts[creds.Address]; ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"hydra:description": "address: This value is already used.",
				"violations": []map[string]string{
					{"propertyPath": "address", "message": "This value is already used."},
				},
			})
			return
		}
		acc := s.addAccountLocked(creds.Address, creds.Password)
		writeJSON(w, http.StatusCreated, acc.account)
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Address  string `json:"address"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		acc, ok := s.accounts[creds.Address]
		if !ok || acc.password != creds.Password {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "message": "Invalid credentials."})
			return
		}
		token := "tok-" + acc.account.ID
		s.tokens[token] = acc
		writeJSON(w, http.StatusOK, Token{ID: acc.account.ID, Token: token})
	})
	mux.HandleFunc("GET /me", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		writeJSON(w, http.StatusOK, acc.account)
	}))
	mux.HandleFunc("GET /accounts/{id}", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		if r.PathValue("id") != acc.account.ID {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, acc.account)
	}))
	mux.HandleFunc("DELETE /accounts/{id}", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		if r.PathValue("id") != acc.account.ID {
			writeNotFound(w)
			return
		}
		delete(s.accounts, acc.account.Address)
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /messages", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		summaries := make([]MessageSummary, 0, len(acc.messages))
		for _, m := range acc.messages {
			summaries = append(summaries, m.MessageSummary)
		}
		s.writeCollection(w, summaries)
	}))
	mux.HandleFunc("GET /messages/{id}", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		if m := acc.message(r.PathValue("id")); m != nil {
			writeJSON(w, http.StatusOK, m)
			return
		}
		writeNotFound(w)
	}))
	mux.HandleFunc("PATCH /messages/{id}", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		m := acc.message(r.PathValue("id"))
		if m == nil {
			writeNotFound(w)
			return
		}
		var patch struct {
			Seen bool `json:"seen"`
		}
		_ = json.NewDecoder(r.Body).Decode(&patch)
		m.Seen = patch.Seen
		writeJSON(w, http.StatusOK, m)
	}))
	mux.HandleFunc("DELETE /messages/{id}", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		for i, m := range acc.messages {
			if m.ID == r.PathValue("id") {
				acc.messages = append(acc.messages[:i], acc.messages[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeNotFound(w)
	}))
	mux.HandleFunc("GET /sources/{id}", s.authed(func(w http.ResponseWriter, r *http.Request, acc *fakeAccount) {
		m := acc.message(r.PathValue("id"))
		if m == nil {
			writeNotFound(w)
			return
		}
		writeJSON(w, http.StatusOK, Source{
			ID:          m.ID,
			DownloadURL: "/sources/" + m.ID + "/download",
			Data:        "Subject: " + m.Subject + "\r\n\r\n" + m.Text,
		})
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.requests = append(s.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			Query:       r.URL.RawQuery,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		mux.ServeHTTP(w, r)
	})
}

func (s *fakeService) authed(fn func(http.ResponseWriter, *http.Request, *fakeAccount)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		acc, ok := s.tokens[token]
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "message": "JWT Token not found"})
			return
		}
		fn(w, r, acc)
	}
}

func (a *fakeAccount) message(id string) *Message {
	for i := range a.messages {
		if a.messages[i].ID == id {
			return &a.messages[i]
		}
	}
	return nil
}

func (s *fakeService) writeCollection(w http.ResponseWriter, members any) {
	if !s.hydra {
		writeJSON(w, http.StatusOK, members)
		return
	}
	raw, _ := json.Marshal(members)
	var list []json.RawMessage
	_ = json.Unmarshal(raw, &list)
	writeJSON(w, http.StatusOK, map[string]any{
		"hydra:member":     list,
		"hydra:totalItems": len(list),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"hydra:title":       "An error occurred",
		"hydra:description": "Not Found",
	})
}
