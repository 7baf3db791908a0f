package summarize

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	appcfg "github.com/notebrief/core/internal/config"
)

func newTestRouter(t *testing.T, cfg *appcfg.AppConfig, stub *stubGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(t, cfg, stub)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestCreateSummaryRequiresFile(t *testing.T) {
	r := newTestRouter(t, testConfig(), &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":0`) {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestCreateSummaryRejectsUnknownExtension(t *testing.T) {
	stub := &stubGenerator{reply: "never"}
	r := newTestRouter(t, testConfig(), stub)

	body, contentType := multipartUpload(t, "slides.pptx", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported_format") {
		t.Fatalf("expected unsupported_format in body, got %s", rec.Body.String())
	}
	if stub.callCount() != 0 {
		t.Fatalf("provider should not be called, got %d calls", stub.callCount())
	}
}

func TestCreateSummaryEnforcesUploadLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxSizeMB = 1
	r := newTestRouter(t, cfg, &stubGenerator{})

	body, contentType := multipartUpload(t, "big.pdf", bytes.Repeat([]byte("x"), (1<<20)+1))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "upload limit") {
		t.Fatalf("expected upload limit message, got %s", rec.Body.String())
	}
}

func TestCreateSummaryHappyPath(t *testing.T) {
	stub := &stubGenerator{reply: "- mitosis splits cells\n- osmosis moves water"}
	r := newTestRouter(t, testConfig(), stub)

	body, contentType := multipartUpload(t, "bio.docx", buildDocxUpload(t, "mitosis", "osmosis"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var got summaryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Summary != stub.reply {
		t.Fatalf("summary = %q", got.Summary)
	}
	if got.DownloadName != "summarized_notes_bio.txt" {
		t.Fatalf("download_name = %q", got.DownloadName)
	}
	if got.Format != "docx" {
		t.Fatalf("format = %q", got.Format)
	}
	if !strings.Contains(got.SummaryHTML, "<li>") {
		t.Fatalf("summary_html should contain a rendered list, got %q", got.SummaryHTML)
	}
	if got.ExtractedChars != len("mitosis\nosmosis") {
		t.Fatalf("extracted_chars = %d", got.ExtractedChars)
	}
}

func TestCreateSummaryMissingCredential(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Providers = nil
	stub := &stubGenerator{reply: "never"}
	r := newTestRouter(t, cfg, stub)

	body, contentType := multipartUpload(t, "bio.docx", buildDocxUpload(t, "mitosis"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Gemini API key") {
		t.Fatalf("expected credential message, got %s", rec.Body.String())
	}
	if stub.callCount() != 0 {
		t.Fatalf("provider should not be called, got %d calls", stub.callCount())
	}
}

func TestCreateSummaryUpstreamFailure(t *testing.T) {
	stub := &stubGenerator{err: errors.New("upstream exploded")}
	r := newTestRouter(t, testConfig(), stub)

	body, contentType := multipartUpload(t, "bio.docx", buildDocxUpload(t, "mitosis"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_error") {
		t.Fatalf("expected api_error in body, got %s", rec.Body.String())
	}
}

func TestDownloadSummaryRoundTrip(t *testing.T) {
	r := newTestRouter(t, testConfig(), &stubGenerator{})

	summary := "## Key points\n\n- mitosis splits cells\n- osmosis moves water ✨"
	payload, err := json.Marshal(downloadSummaryDTO{
		DownloadName: "summarized_notes_bio.txt",
		Summary:      summary,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize/download", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != summary {
		t.Fatalf("download body must round-trip the summary untouched, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="summarized_notes_bio.txt"` {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestDownloadSummaryRequiresSummary(t *testing.T) {
	r := newTestRouter(t, testConfig(), &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize/download", strings.NewReader(`{"download_name":"x.txt"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadSummarySanitizesFilename(t *testing.T) {
	r := newTestRouter(t, testConfig(), &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize/download",
		strings.NewReader(`{"download_name":"../tricky\".bin","summary":"text"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cd := rec.Header().Get("Content-Disposition")
	if cd != `attachment; filename="tricky_.bin.txt"` {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestGetModelsSkipsKeylessProviders(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Providers = append(cfg.AI.Providers, appcfg.AIProvider{
		ID:      "spare",
		Name:    "Spare",
		Type:    "openai",
		Enabled: true,
	})
	r := newTestRouter(t, cfg, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summarize/models", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		Data []providerModelsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Data) != 1 {
		t.Fatalf("providers = %d, want 1", len(got.Data))
	}
	if got.Data[0].ProviderID != "gemini" {
		t.Fatalf("provider_id = %q, want gemini", got.Data[0].ProviderID)
	}
	if len(got.Data[0].Models) != 1 || got.Data[0].Models[0].ID != "models/gemini-2.0-flash" {
		t.Fatalf("models = %+v", got.Data[0].Models)
	}
}
