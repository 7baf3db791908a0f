package summarize

import "fmt"

// pipelineStage tracks where an upload interaction is: received →
// extracting → extracted → summarizing → ready. A failure records the
// stage it happened in.
type pipelineStage string

const (
	stageReceived    pipelineStage = "received"
	stageExtracting  pipelineStage = "extracting"
	stageExtracted   pipelineStage = "extracted"
	stageSummarizing pipelineStage = "summarizing"
	stageReady       pipelineStage = "ready"
)

// failureKind classifies terminal pipeline failures. The handler maps
// each kind onto an HTTP status.
type failureKind string

const (
	failUnsupportedFormat failureKind = "unsupported_format"
	failInvalidInput      failureKind = "invalid_input"
	failExtraction        failureKind = "extraction_error"
	failNoContent         failureKind = "no_content"
	failAPI               failureKind = "api_error"
	failMissingCredential failureKind = "missing_credential"
)

// pipelineError is the terminal failure of a single summarize
// interaction. Pipeline errors are never retried across requests; the
// client decides whether to upload again.
type pipelineError struct {
	stage pipelineStage
	kind  failureKind
	err   error
}

func failAt(stage pipelineStage, kind failureKind, err error) *pipelineError {
	return &pipelineError{stage: stage, kind: kind, err: err}
}

func (e *pipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *pipelineError) Unwrap() error { return e.err }
