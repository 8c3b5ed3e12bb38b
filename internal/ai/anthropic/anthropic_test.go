package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != messagesPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "key" || r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("unexpected headers: %v", r.Header)
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != defaultModel || req.MaxTokens != defaultMaxTokens || len(req.Messages) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}

		_, _ = w.Write([]byte(`{"content":[
			{"type":"text","text":"PROFESSIONAL SUMMARY:"},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"Cloud leader."}
		]}`))
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := g.GenerateContent(context.Background(), "tailor")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "PROFESSIONAL SUMMARY:\nCloud leader." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGenerateContentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "overloaded", status: 529, body: `{"type":"error"}`, want: "anthropic API 529"},
		{name: "empty", status: http.StatusOK, body: `{"content":[]}`, want: "empty anthropic response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, err := New(Config{APIKey: "k", BaseURL: srv.URL})
			if err != nil {
				t.Fatal(err)
			}
			_, err = g.GenerateContent(context.Background(), "prompt")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
