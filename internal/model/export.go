package model

import (
	"time"

	"github.com/google/uuid"
)

// OutputFormat is the target encoding for exported files.
type OutputFormat string

const (
	FormatJPEG OutputFormat = "JPEG"
	FormatPNG  OutputFormat = "PNG"
)

// NamingRule selects how output filenames are derived from input filenames.
type NamingRule string

const (
	NamingOriginal NamingRule = "original"
	NamingPrefix   NamingRule = "prefix"
	NamingSuffix   NamingRule = "suffix"
)

// ExportSettings is the frozen per-batch configuration. It is captured by
// value when a batch is submitted and never re-read from live state.
type ExportSettings struct {
	Format      OutputFormat        `json:"format"`
	Quality     int                 `json:"quality"` // 1-100, JPEG only
	NamingRule  NamingRule          `json:"naming_rule"`
	NamingAffix string              `json:"naming_affix,omitempty"`
	Watermark   WatermarkDescriptor `json:"watermark"`
}

// Snapshot returns a deep copy of the settings. Batches hold only snapshots.
func (s ExportSettings) Snapshot() ExportSettings {
	out := s
	out.Watermark = s.Watermark.Clone()
	return out
}

// ExportTask is one batch request as it travels through the queue.
type ExportTask struct {
	ID           uuid.UUID      `json:"id"`
	Files        []string       `json:"files"`
	OutputFolder string         `json:"output_folder"`
	Settings     ExportSettings `json:"settings"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Progress is one per-file progress notification. Current is 1-based.
type Progress struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Filename string `json:"filename"`
}

// ExportResult aggregates the outcome of one batch. Errors holds one
// "filename: message" entry per failed job, in input order.
type ExportResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`

	// Written lists the output filenames actually produced, used by the
	// archive mirror. Not part of the reported summary.
	Written []string `json:"-"`
}

// BatchState is the lifecycle state of a batch in the registry.
type BatchState string

const (
	BatchQueued  BatchState = "queued"
	BatchRunning BatchState = "running"
	BatchDone    BatchState = "done"
)

// BatchStatus is what the status endpoint reports for one batch.
type BatchStatus struct {
	ID       uuid.UUID     `json:"id"`
	State    BatchState    `json:"state"`
	Progress Progress      `json:"progress"`
	Result   *ExportResult `json:"result,omitempty"`
}
