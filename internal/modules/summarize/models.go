package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	appcfg "github.com/notebrief/core/internal/config"
)

const modelsFetchTimeout = 20 * time.Second

func modelsFromProvider(provider appcfg.AIProvider) []modelInfo {
	models := make([]modelInfo, 0, 1)
	if provider.DefaultModel != "" {
		models = append(models, modelInfo{
			ID:   provider.DefaultModel,
			Name: provider.DefaultModel,
		})
	}
	return models
}

func fetchModelsFromProvider(ctx context.Context, provider appcfg.AIProvider) ([]modelInfo, error) {
	switch {
	case isGeminiProviderType(provider.Type):
		endpoint := normalizeGeminiModelsEndpoint(provider.Endpoint)
		headers := map[string]string{
			"x-goog-api-key": strings.TrimSpace(provider.APIKey),
			"accept":         "application/json",
		}
		return fetchModelsByEndpoint(ctx, endpoint, headers, parseGeminiModels)
	case isAnthropicProviderType(provider.Type):
		endpoint := normalizeAnthropicModelsEndpoint(provider.Endpoint)
		headers := map[string]string{
			"x-api-key":         strings.TrimSpace(provider.APIKey),
			"anthropic-version": "2023-06-01",
			"content-type":      "application/json",
			"accept":            "application/json",
		}
		return fetchModelsByEndpoint(ctx, endpoint, headers, parseAnthropicModels)
	default:
		endpoint := normalizeOpenAIModelsEndpoint(provider.Endpoint)
		headers := map[string]string{
			"authorization": "Bearer " + strings.TrimSpace(provider.APIKey),
			"accept":        "application/json",
		}
		return fetchModelsByEndpoint(ctx, endpoint, headers, parseOpenAIStyleModels)
	}
}

func fetchModelsByEndpoint(ctx context.Context, endpoint string, headers map[string]string, parser func([]byte) ([]modelInfo, error)) ([]modelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		if strings.TrimSpace(v) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: modelsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("provider models request failed: %s", strings.TrimSpace(string(body)))
	}
	models, err := parser(body)
	if err != nil {
		return nil, err
	}
	return dedupeModelInfos(models), nil
}

func parseOpenAIStyleModels(body []byte) ([]modelInfo, error) {
	var payload struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	models := make([]modelInfo, 0, len(payload.Data))
	for _, item := range payload.Data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = id
		}
		models = append(models, modelInfo{ID: id, Name: name})
	}
	return models, nil
}

func parseAnthropicModels(body []byte) ([]modelInfo, error) {
	var payload struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	models := make([]modelInfo, 0, len(payload.Data))
	for _, item := range payload.Data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(item.DisplayName)
		if name == "" {
			name = id
		}
		models = append(models, modelInfo{ID: id, Name: name})
	}
	return models, nil
}

func parseGeminiModels(body []byte) ([]modelInfo, error) {
	var payload struct {
		Models []struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	models := make([]modelInfo, 0, len(payload.Models))
	for _, item := range payload.Models {
		id := strings.TrimSpace(item.Name)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(item.DisplayName)
		if name == "" {
			name = id
		}
		models = append(models, modelInfo{ID: id, Name: name})
	}
	return models, nil
}

func dedupeModelInfos(input []modelInfo) []modelInfo {
	if len(input) == 0 {
		return []modelInfo{}
	}
	out := make([]modelInfo, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, item := range input {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = id
		}
		out = append(out, modelInfo{ID: id, Name: name})
	}
	return out
}

func normalizeOpenAIModelsEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.openai.com/v1/models"
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		cleaned := strings.TrimRight(base, "/")
		cleaned = strings.TrimSuffix(cleaned, "/models")
		cleaned = strings.TrimSuffix(cleaned, "/v1")
		return cleaned + "/v1/models"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/models")
	path = strings.TrimSuffix(path, "/v1")
	parsed.Path = strings.TrimRight(path, "/") + "/v1/models"
	return strings.TrimRight(parsed.String(), "/")
}

func normalizeAnthropicModelsEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.anthropic.com/v1/models"
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		cleaned := strings.TrimRight(base, "/")
		cleaned = strings.TrimSuffix(cleaned, "/models")
		cleaned = strings.TrimSuffix(cleaned, "/v1")
		return cleaned + "/v1/models"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/models")
	path = strings.TrimSuffix(path, "/v1")
	parsed.Path = strings.TrimRight(path, "/") + "/v1/models"
	return strings.TrimRight(parsed.String(), "/")
}

// normalizeGeminiModelsEndpoint points at the Gemini REST model list;
// the generation path itself goes through the genai SDK.
func normalizeGeminiModelsEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://generativelanguage.googleapis.com/v1beta/models"
	}
	cleaned := strings.TrimRight(base, "/")
	if strings.HasSuffix(cleaned, "/models") {
		return cleaned
	}
	if strings.HasSuffix(cleaned, "/v1beta") || strings.HasSuffix(cleaned, "/v1") {
		return cleaned + "/models"
	}
	return cleaned + "/v1beta/models"
}
