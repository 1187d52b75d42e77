package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TubeScribe/internal/config"
	"TubeScribe/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.BackendConfig{
		Endpoint:   server.URL,
		Model:      "deepseek-chat",
		APIKey:     "test-key",
		ScoreScale: 5,
	})
	return client, server
}

func chatReply(content string) []byte {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func TestCompleteSendsChatRequest(t *testing.T) {
	t.Parallel()

	var gotAuth, gotModel, gotSystem string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = req.Model
		if len(req.Messages) == 2 && req.Messages[0].Role == "system" {
			gotSystem = req.Messages[0].Content
		}

		w.Write(chatReply(strings.Repeat("好", 150)))
	})

	outcome := client.Complete(context.Background(), "系统提示", "用户提示")

	if outcome.Kind != ports.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%v)", outcome.Kind, outcome.Err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotModel != "deepseek-chat" {
		t.Fatalf("unexpected model %q", gotModel)
	}
	if gotSystem != "系统提示" {
		t.Fatalf("system prompt not forwarded: %q", gotSystem)
	}
}

func TestCompleteClassifiesRefusal(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("抱歉，我不能生成这样的内容。"))
	})

	outcome := client.Complete(context.Background(), "", "写一篇文章")
	if outcome.Kind != ports.OutcomeRefusal {
		t.Fatalf("expected refusal, got %s", outcome.Kind)
	}
}

func TestCompleteClassifiesEmptyChoices(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	outcome := client.Complete(context.Background(), "", "prompt")
	if outcome.Kind != ports.OutcomeEmpty {
		t.Fatalf("expected empty, got %s", outcome.Kind)
	}
}

func TestCompleteSurfacesHTTPError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	outcome := client.Complete(context.Background(), "", "prompt")
	if outcome.Kind != ports.OutcomeError {
		t.Fatalf("expected error outcome, got %s", outcome.Kind)
	}
	if outcome.Err == nil || !strings.Contains(outcome.Err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", outcome.Err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		kind ports.OutcomeKind
	}{
		{"blank", "   \n ", ports.OutcomeEmpty},
		{"refusal marker", "抱歉，这超出了我的能力范围", ports.OutcomeRefusal},
		{"cannot generate", "我不能生成该内容", ports.OutcomeRefusal},
		{"short but real", "4.5", ports.OutcomeSuccess},
		{"long form", strings.Repeat("字", 200), ports.OutcomeSuccess},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.text); got.Kind != tc.kind {
				t.Fatalf("Classify(%q) = %s, want %s", tc.text, got.Kind, tc.kind)
			}
		})
	}
}

func TestUsableArticleFloor(t *testing.T) {
	t.Parallel()

	short := Classify("太短的回复")
	if short.UsableArticle() {
		t.Fatal("sub-100-rune text must not be usable as an article")
	}
	if !short.Usable() {
		t.Fatal("short text is still a usable short-form answer")
	}

	long := Classify(strings.Repeat("字", 120))
	if !long.UsableArticle() {
		t.Fatal("120-rune text clears the floor")
	}
}
