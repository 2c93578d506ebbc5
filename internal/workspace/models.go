package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentVersion is the current "major.minor" document format version.
// A differing major version on load is warned about, never rejected.
const DocumentVersion = "1.2"

// Status represents the processing lifecycle of a workspace item.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

var allStatuses = []Status{
	StatusNotStarted,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends an item's lifecycle.
// Completed, failed, and skipped items are never reprocessed on resume.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Document is the complete JSON state of one workspace.
type Document struct {
	WorkspaceInfo    WorkspaceInfo    `json:"workspace_info"`
	WorkflowProgress WorkflowProgress `json:"workflow_progress"`
	ProcessingConfig ProcessingConfig `json:"processing_config"`
	Items            ItemMap          `json:"items"`
	BatchStatistics  BatchStatistics  `json:"batch_statistics"`
}

// WorkspaceInfo identifies the workspace and its format version.
type WorkspaceInfo struct {
	Version         string    `json:"version"`
	Created         time.Time `json:"created"`
	LastModified    time.Time `json:"last_modified"`
	SourceDirectory string    `json:"source_directory"`
	ProcessingMode  string    `json:"processing_mode"`
}

// WorkflowProgress holds the counters a resuming driver reads before a run.
// Counters are recomputed inside the same save transaction as the mutation
// that changed them; they are never written independently.
type WorkflowProgress struct {
	TotalFiles       int    `json:"total_files"`
	CompletedFiles   int    `json:"completed_files"`
	FailedFiles      int    `json:"failed_files"`
	SkippedFiles     int    `json:"skipped_files"`
	LastProcessed    string `json:"last_processed"`
	BatchID          string `json:"batch_id"`
	IsComplete       bool   `json:"is_complete"`
	ResumeCheckpoint string `json:"resume_checkpoint"`
}

// ProcessingConfig records how descriptions are being generated.
type ProcessingConfig struct {
	Model              string            `json:"model"`
	PromptStyle        string            `json:"prompt_style"`
	Provider           string            `json:"provider"`
	CustomPrompt       string            `json:"custom_prompt"`
	ConversionSettings map[string]string `json:"conversion_settings"`
}

// BatchStatistics aggregates timing and failure data across the batch.
type BatchStatistics struct {
	FilesByType     map[string]int  `json:"files_by_type"`
	ProcessingTimes ProcessingTimes `json:"processing_times"`
	Errors          map[string]int  `json:"errors"`
}

// ProcessingTimes tracks per-item description latency in milliseconds.
// Values are integers; the running average deliberately truncates.
type ProcessingTimes struct {
	AverageMs int64 `json:"average_ms"`
	FastestMs int64 `json:"fastest_ms"`
	SlowestMs int64 `json:"slowest_ms"`
}

// Item is one unit of work: a single source file tracked through its
// description lifecycle.
type Item struct {
	ItemID            string            `json:"item_id"`
	OriginalFile      string            `json:"original_file"`
	DisplayFile       string            `json:"display_file"`
	Description       string            `json:"description"`
	Metadata          ItemMetadata      `json:"metadata"`
	ProcessingInfo    ProcessingInfo    `json:"processing_info"`
	UserModifications UserModifications `json:"user_modifications"`
}

// ItemMetadata carries file facts extracted during discovery or processing.
type ItemMetadata struct {
	FileSize     int64  `json:"file_size"`
	Dimensions   string `json:"dimensions"`
	CreationDate string `json:"creation_date"`
	CameraModel  string `json:"camera_model"`
}

// ProcessingInfo tracks how and when an item was processed.
type ProcessingInfo struct {
	Status            Status     `json:"status"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	ProcessingTimeMs  int64      `json:"processing_time_ms"`
	SourceType        string     `json:"source_type"`
	ConversionApplied bool       `json:"conversion_applied"`
	ExtractionSource  string     `json:"extraction_source"`
	ErrorMessage      string     `json:"error_message"`
}

// UserModifications preserves edits made by a human reviewer.
type UserModifications struct {
	Renamed           bool     `json:"renamed"`
	CustomDescription string   `json:"custom_description"`
	Tags              []string `json:"tags"`
	Rating            int      `json:"rating"`
}

// merge overlays non-zero fields from other onto m.
func (m *ItemMetadata) merge(other ItemMetadata) {
	if other.FileSize != 0 {
		m.FileSize = other.FileSize
	}
	if other.Dimensions != "" {
		m.Dimensions = other.Dimensions
	}
	if other.CreationDate != "" {
		m.CreationDate = other.CreationDate
	}
	if other.CameraModel != "" {
		m.CameraModel = other.CameraModel
	}
}

// NewDocument builds an empty workspace document for a source directory.
func NewDocument(sourceDir, processingMode string, cfg ProcessingConfig) *Document {
	now := time.Now().UTC()
	if cfg.ConversionSettings == nil {
		cfg.ConversionSettings = map[string]string{}
	}
	return &Document{
		WorkspaceInfo: WorkspaceInfo{
			Version:         DocumentVersion,
			Created:         now,
			LastModified:    now,
			SourceDirectory: sourceDir,
			ProcessingMode:  processingMode,
		},
		WorkflowProgress: WorkflowProgress{
			BatchID: uuid.NewString(),
		},
		ProcessingConfig: cfg,
		Items:            ItemMap{},
		BatchStatistics: BatchStatistics{
			FilesByType: map[string]int{},
			Errors:      map[string]int{},
		},
	}
}

// Clone returns a deep copy of the document via a JSON round trip.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	var cp Document
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return &cp, nil
}

// ensureDefaults backfills maps a hand-edited or older document may omit.
func (d *Document) ensureDefaults() {
	if d.ProcessingConfig.ConversionSettings == nil {
		d.ProcessingConfig.ConversionSettings = map[string]string{}
	}
	if d.BatchStatistics.FilesByType == nil {
		d.BatchStatistics.FilesByType = map[string]int{}
	}
	if d.BatchStatistics.Errors == nil {
		d.BatchStatistics.Errors = map[string]int{}
	}
}

// ItemMap is a JSON object of item_id to Item that preserves insertion
// order across save/load. Resume planning depends on that order.
type ItemMap struct {
	order []string
	items map[string]*Item
}

// Len returns the number of items.
func (m *ItemMap) Len() int {
	return len(m.order)
}

// Get returns the item for id, if present.
func (m *ItemMap) Get(id string) (*Item, bool) {
	item, ok := m.items[id]
	return item, ok
}

// Set upserts an item keyed by its ItemID. Existing items keep their
// insertion position.
func (m *ItemMap) Set(item *Item) {
	if item == nil || item.ItemID == "" {
		return
	}
	if m.items == nil {
		m.items = make(map[string]*Item)
	}
	if _, exists := m.items[item.ItemID]; !exists {
		m.order = append(m.order, item.ItemID)
	}
	m.items[item.ItemID] = item
}

// IDs returns item ids in insertion order.
func (m *ItemMap) IDs() []string {
	cp := make([]string, len(m.order))
	copy(cp, m.order)
	return cp
}

// Walk visits items in insertion order until fn returns false.
func (m *ItemMap) Walk(fn func(item *Item) bool) {
	for _, id := range m.order {
		if !fn(m.items[id]) {
			return
		}
	}
}

// MarshalJSON writes the items as a JSON object in insertion order.
func (m ItemMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(m.items[id])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, recording key order as it streams.
func (m *ItemMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("items: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return errors.New("items must be a JSON object")
	}

	m.order = nil
	m.items = make(map[string]*Item)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("items: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("items: object key is not a string")
		}
		var item Item
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("items[%s]: %w", key, err)
		}
		if item.ItemID == "" {
			item.ItemID = key
		}
		if _, exists := m.items[key]; !exists {
			m.order = append(m.order, key)
		}
		m.items[key] = &item
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("items: %w", err)
	}
	return nil
}
