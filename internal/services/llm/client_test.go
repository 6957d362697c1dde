package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"vidfetch/internal/services"
)

func respondWith(t *testing.T, choice map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"choices": []any{choice}}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "vidfetch" {
			t.Fatalf("unexpected title header %q", got)
		}
		respondWith(t, map[string]any{"message": map[string]any{"content": `{"ok":true}`}})(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "vidfetch"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestTranslateSendsLanguagesAndDecodesCodeFence(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		respondWith(t, map[string]any{"message": map[string]any{
			"content": "```json\n{\"translation\": \"Bonjour le monde\"}\n```",
		}})(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	got, err := client.Translate(context.Background(), "  Hello world ", "en", "fr")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Bonjour le monde" {
		t.Fatalf("unexpected translation %q", got)
	}
	if captured.Model != "demo-model" || len(captured.Messages) != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
	user := captured.Messages[1].Content
	for _, want := range []string{"English (en)", "French (fr)", "Hello world"} {
		if !strings.Contains(user, want) {
			t.Fatalf("expected %q in user prompt %q", want, user)
		}
	}
	if captured.ResponseFormat["type"] != jsonResponseType {
		t.Fatalf("expected json response format, got %v", captured.ResponseFormat)
	}
}

func TestTranslateAutoSourceAsksForDetection(t *testing.T) {
	prompt := buildTranslationRequest("hola", "auto", "de")
	if !strings.Contains(prompt, "Detect the source language.") {
		t.Fatalf("expected detection instruction in %q", prompt)
	}
	if !strings.Contains(prompt, "German (de)") {
		t.Fatalf("expected target display name in %q", prompt)
	}
}

func TestTranslateToolCallArguments(t *testing.T) {
	server := httptest.NewServer(respondWith(t, map[string]any{
		"finish_reason": "tool_calls",
		"message": map[string]any{
			"content": "",
			"tool_calls": []any{
				map[string]any{
					"type": "function",
					"id":   "call_1",
					"function": map[string]any{
						"name":      "translate",
						"arguments": `{"translation":"Hallo"}`,
					},
				},
			},
		},
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	got, err := client.Translate(context.Background(), "Hello", "en", "de")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "Hallo" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": `{"translation":"Ciao"}`}},
		"legacy": {"finish_reason": "stop", "text": `{"translation":"Ciao"}`},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(respondWith(t, choice))
			defer server.Close()

			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
			got, err := client.Translate(context.Background(), "Hello", "en", "it")
			if err != nil {
				t.Fatalf("Translate returned error: %v", err)
			}
			if got != "Ciao" {
				t.Fatalf("unexpected translation %q", got)
			}
		})
	}
}

func TestTranslateEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(respondWith(t, map[string]any{
		"finish_reason": "stop",
		"message":       map[string]any{"content": ""},
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Translate(context.Background(), "Hello", "en", "fr")
	if err == nil {
		t.Fatal("expected translate to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestTranslateSingleAttemptOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Translate(context.Background(), "Hello", "en", "fr")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
}

func TestTranslateWithoutAPIKeySkipsNetwork(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "demo-model"})
	_, err := client.Translate(context.Background(), "Hello", "en", "fr")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestTranslateBlankTextIsNoop(t *testing.T) {
	client := NewClient(Config{})
	got, err := client.Translate(context.Background(), "   ", "en", "fr")
	if err != nil || got != "" {
		t.Fatalf("expected empty no-op, got %q, %v", got, err)
	}
}

func TestDecodeLLMJSONExtractsObject(t *testing.T) {
	var parsed translationPayload
	if err := DecodeLLMJSON(`Sure! {"translation":"Hola"} hope this helps`, &parsed); err != nil {
		t.Fatalf("DecodeLLMJSON returned error: %v", err)
	}
	if parsed.Translation != "Hola" {
		t.Fatalf("unexpected translation %q", parsed.Translation)
	}
	if err := DecodeLLMJSON("no json here", &parsed); err == nil {
		t.Fatal("expected decode failure")
	}
}
