package summarize

// summaryResult is the success payload for one processed upload.
type summaryResult struct {
	FileName       string `json:"file_name"`
	Format         string `json:"format"`
	Summary        string `json:"summary"`
	SummaryHTML    string `json:"summary_html"`
	DownloadName   string `json:"download_name"`
	ExtractedChars int    `json:"extracted_chars"`
	ElapsedMS      int64  `json:"elapsed_ms"`
}

type downloadSummaryDTO struct {
	DownloadName string `json:"download_name"`
	Summary      string `json:"summary" binding:"required"`
}

type modelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type providerModelsResponse struct {
	ProviderID   string      `json:"provider_id"`
	ProviderName string      `json:"provider_name"`
	ProviderType string      `json:"provider_type"`
	Models       []modelInfo `json:"models"`
	Error        string      `json:"error,omitempty"`
}
