package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appcfg "github.com/notebrief/core/internal/config"
	jetapi "go.jetify.com/ai/api"
)

func TestSelectProviderPrefersConfiguredID(t *testing.T) {
	cfg := &appcfg.AppConfig{
		Summary: appcfg.SummaryConfig{ProviderID: "backup"},
		AI: appcfg.AIConfig{Providers: []appcfg.AIProvider{
			{ID: "primary", Type: "gemini", APIKey: "k1", Enabled: true},
			{ID: "backup", Type: "openai", APIKey: "k2", Enabled: true},
		}},
	}
	p := selectProvider(cfg)
	if p == nil || p.ID != "backup" {
		t.Fatalf("selected %+v, want backup", p)
	}
}

func TestSelectProviderFallsBackToFirstEnabled(t *testing.T) {
	cfg := &appcfg.AppConfig{
		AI: appcfg.AIConfig{Providers: []appcfg.AIProvider{
			{ID: "off", Type: "gemini", APIKey: "k1", Enabled: false},
			{ID: "on", Type: "gemini", APIKey: "k2", Enabled: true},
		}},
	}
	p := selectProvider(cfg)
	if p == nil || p.ID != "on" {
		t.Fatalf("selected %+v, want on", p)
	}
}

func TestSelectProviderAppliesModelOverride(t *testing.T) {
	cfg := &appcfg.AppConfig{
		Summary: appcfg.SummaryConfig{Model: "models/gemini-2.5-pro"},
		AI: appcfg.AIConfig{Providers: []appcfg.AIProvider{
			{ID: "gemini", Type: "gemini", APIKey: "k", DefaultModel: "models/gemini-2.0-flash", Enabled: true},
		}},
	}
	p := selectProvider(cfg)
	if p == nil || p.DefaultModel != "models/gemini-2.5-pro" {
		t.Fatalf("selected %+v, want override model", p)
	}
	if cfg.AI.Providers[0].DefaultModel != "models/gemini-2.0-flash" {
		t.Fatal("override must not mutate the configured provider")
	}
}

func TestSelectProviderNoneConfigured(t *testing.T) {
	if p := selectProvider(&appcfg.AppConfig{}); p != nil {
		t.Fatalf("selected %+v, want nil", p)
	}
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"https://api.example.com", "https://api.example.com/v1"},
		{"https://api.example.com/v1/", "https://api.example.com/v1"},
		{"https://gw.corp/openai", "https://gw.corp/openai/v1"},
	}
	for _, tc := range cases {
		if got := normalizeOpenAIBaseURL(tc.in); got != tc.want {
			t.Errorf("normalizeOpenAIBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOpenAICompatibleEndpoint(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "https://api.openai.com"},
		{"https://api.x.ai/v1", "https://api.x.ai"},
		{"https://gw.corp/openai/v1/", "https://gw.corp/openai"},
		{"https://gw.corp/openai", "https://gw.corp/openai"},
	}
	for _, tc := range cases {
		if got := normalizeOpenAICompatibleEndpoint(tc.in); got != tc.want {
			t.Errorf("normalizeOpenAICompatibleEndpoint(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeModelsEndpoints(t *testing.T) {
	if got := normalizeOpenAIModelsEndpoint(""); got != "https://api.openai.com/v1/models" {
		t.Errorf("openai default = %q", got)
	}
	if got := normalizeOpenAIModelsEndpoint("https://gw.corp/v1"); got != "https://gw.corp/v1/models" {
		t.Errorf("openai gateway = %q", got)
	}
	if got := normalizeAnthropicModelsEndpoint(""); got != "https://api.anthropic.com/v1/models" {
		t.Errorf("anthropic default = %q", got)
	}
	if got := normalizeGeminiModelsEndpoint(""); got != "https://generativelanguage.googleapis.com/v1beta/models" {
		t.Errorf("gemini default = %q", got)
	}
	if got := normalizeGeminiModelsEndpoint("https://gw.corp/v1beta"); got != "https://gw.corp/v1beta/models" {
		t.Errorf("gemini gateway = %q", got)
	}
}

func TestParseGeminiModels(t *testing.T) {
	body := []byte(`{"models":[
		{"name":"models/gemini-2.0-flash","displayName":"Gemini 2.0 Flash"},
		{"name":"models/embedding-001"},
		{"name":""}
	]}`)
	models, err := parseGeminiModels(body)
	if err != nil {
		t.Fatalf("parseGeminiModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("models = %+v, want 2 entries", models)
	}
	if models[0].ID != "models/gemini-2.0-flash" || models[0].Name != "Gemini 2.0 Flash" {
		t.Fatalf("first model = %+v", models[0])
	}
	if models[1].Name != "models/embedding-001" {
		t.Fatalf("display name should fall back to id, got %+v", models[1])
	}
}

func TestParseOpenAIStyleModels(t *testing.T) {
	body := []byte(`{"data":[{"id":"gpt-4o-mini"},{"id":"gpt-4o-mini"},{"id":"o3","name":"O3"}]}`)
	models, err := parseOpenAIStyleModels(body)
	if err != nil {
		t.Fatalf("parseOpenAIStyleModels() error = %v", err)
	}
	models = dedupeModelInfos(models)
	if len(models) != 2 {
		t.Fatalf("models = %+v, want 2 after dedupe", models)
	}
	if models[1].ID != "o3" || models[1].Name != "O3" {
		t.Fatalf("second model = %+v", models[1])
	}
}

func TestBuildPromptMessages(t *testing.T) {
	msgs := buildPromptMessages("", "hello")
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1 when system prompt is empty", len(msgs))
	}
	if _, ok := msgs[0].(*jetapi.UserMessage); !ok {
		t.Fatalf("first message should be the user message, got %T", msgs[0])
	}

	msgs = buildPromptMessages("be brief", "hello")
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2 with system prompt", len(msgs))
	}
	if _, ok := msgs[0].(*jetapi.SystemMessage); !ok {
		t.Fatalf("first message should be the system message, got %T", msgs[0])
	}
}

func TestCallOpenAICompatibleChatCompletions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req struct {
			Model     string              `json:"model"`
			Messages  []map[string]string `json:"messages"`
			MaxTokens int                 `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if req.MaxTokens != 128 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}
		if len(req.Messages) != 2 || req.Messages[0]["role"] != "system" || req.Messages[1]["content"] != "user prompt" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Summary text."}}]}`))
	}))
	defer ts.Close()

	provider := &appcfg.AIProvider{
		Type:         "openai-compatible",
		APIKey:       "test-key",
		Endpoint:     ts.URL,
		DefaultModel: "test-model",
		Enabled:      true,
	}
	got, err := callOpenAICompatibleChatCompletions(context.Background(), provider, "be brief", "user prompt", 128)
	if err != nil {
		t.Fatalf("callOpenAICompatibleChatCompletions() error = %v", err)
	}
	if got != "Summary text." {
		t.Fatalf("reply = %q", got)
	}
}

func TestCallOpenAICompatibleRejectionIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	provider := &appcfg.AIProvider{Type: "openai-compatible", APIKey: "bad", Endpoint: ts.URL, Enabled: true}
	_, err := callOpenAICompatibleChatCompletions(context.Background(), provider, "", "prompt", 64)
	if err == nil {
		t.Fatal("expected error")
	}
	if !isPermanentProviderError(err) {
		t.Fatalf("401 should be permanent, got %v", err)
	}
	if retryableProviderError(err) {
		t.Fatal("permanent errors must not be retried")
	}
}

func TestCallOpenAICompatibleServerErrorIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	provider := &appcfg.AIProvider{Type: "openai-compatible", APIKey: "k", Endpoint: ts.URL, Enabled: true}
	_, err := callOpenAICompatibleChatCompletions(context.Background(), provider, "", "prompt", 64)
	if err == nil {
		t.Fatal("expected error")
	}
	if isPermanentProviderError(err) {
		t.Fatalf("503 should stay retryable, got %v", err)
	}
}

func TestCallProviderClampsMaxTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens != defaultMaxOutputTokens {
			t.Errorf("max_tokens = %d, want %d", req.MaxTokens, defaultMaxOutputTokens)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	provider := &appcfg.AIProvider{Type: "openai-compatible", APIKey: "k", Endpoint: ts.URL, Enabled: true}
	if _, err := callProvider(context.Background(), provider, "", "prompt", 0); err != nil {
		t.Fatalf("callProvider() error = %v", err)
	}
}

func TestCallProviderGuards(t *testing.T) {
	if _, err := callProvider(context.Background(), nil, "", "p", 10); err == nil {
		t.Fatal("nil provider must error")
	}
	provider := &appcfg.AIProvider{Type: "gemini", Enabled: true}
	if _, err := callProvider(context.Background(), provider, "", "p", 10); err == nil {
		t.Fatal("blank api key must error")
	}
}

func TestRetryableProviderError(t *testing.T) {
	if retryableProviderError(context.Canceled) {
		t.Fatal("cancellation must not be retried")
	}
	if retryableProviderError(context.DeadlineExceeded) {
		t.Fatal("deadline expiry must not be retried")
	}
	if !retryableProviderError(errors.New("connection reset")) {
		t.Fatal("transport errors should be retryable")
	}
}

func TestModelsFromProvider(t *testing.T) {
	models := modelsFromProvider(appcfg.AIProvider{DefaultModel: "models/gemini-2.0-flash"})
	if len(models) != 1 || models[0].ID != "models/gemini-2.0-flash" {
		t.Fatalf("models = %+v", models)
	}
	if models := modelsFromProvider(appcfg.AIProvider{}); len(models) != 0 {
		t.Fatalf("expected no models without a default, got %+v", models)
	}
}

func TestFetchModelsFromProviderGemini(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "gk" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.0-flash","displayName":"Gemini 2.0 Flash"}]}`))
	}))
	defer ts.Close()

	provider := appcfg.AIProvider{Type: "gemini", APIKey: "gk", Endpoint: ts.URL, Enabled: true}
	models, err := fetchModelsFromProvider(context.Background(), provider)
	if err != nil {
		t.Fatalf("fetchModelsFromProvider() error = %v", err)
	}
	if len(models) != 1 || models[0].Name != "Gemini 2.0 Flash" {
		t.Fatalf("models = %+v", models)
	}
}
