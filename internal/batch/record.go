package batch

import "encoding/json"

// Status is the lifecycle state of a batch.
type Status string

const (
	// StatusPending means the batch is registered but not yet running.
	StatusPending Status = "pending"
	// StatusProcessing means the batch goroutine is working through images.
	StatusProcessing Status = "processing"
	// StatusCompleted means the batch finished its image list.
	StatusCompleted Status = "completed"
	// StatusFailed means the batch aborted before finishing its image list.
	StatusFailed Status = "failed"
)

// Record tracks one batch. Counts always satisfy
// CompletedImages + FailedImages <= TotalImages. ProcessedFiles and
// FailedFiles are append-only: every attempted image lands in exactly one of
// them, in attempt order, with prior-run results pre-seeding ProcessedFiles
// on resume.
type Record struct {
	BatchID         string   `json:"batch_id" yaml:"batch_id"`
	FolderPath      string   `json:"folder_path" yaml:"folder_path"`
	Status          Status   `json:"status" yaml:"status"`
	TotalImages     int      `json:"total_images" yaml:"total_images"`
	CompletedImages int      `json:"completed_images" yaml:"completed_images"`
	FailedImages    int      `json:"failed_images" yaml:"failed_images"`
	ProcessedFiles  []string `json:"processed_files" yaml:"processed_files"`
	FailedFiles     []string `json:"failed_files" yaml:"failed_files"`
	CurrentImage    string   `json:"current_image,omitempty" yaml:"current_image,omitempty"`
	StartTime       string   `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime         string   `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Error           string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// clone copies the record including its file lists, so snapshots never alias
// the registry's live slices.
func (r *Record) clone() Record {
	out := *r
	out.ProcessedFiles = append([]string(nil), r.ProcessedFiles...)
	out.FailedFiles = append([]string(nil), r.FailedFiles...)
	return out
}

// PendingImages is the number of images not yet attempted.
func (r *Record) PendingImages() int {
	return r.TotalImages - r.CompletedImages - r.FailedImages
}

// ProgressPercent is the share of completed images, 0-100. Failed images do
// not advance progress; a batch with no images reports 0.
func (r *Record) ProgressPercent() float64 {
	if r.TotalImages == 0 {
		return 0
	}
	return float64(r.CompletedImages) / float64(r.TotalImages) * 100
}

// Finished reports whether the batch reached a terminal status.
func (r *Record) Finished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// MarshalJSON includes the derived pending count and progress percentage so
// API consumers do not recompute them.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		PendingImages   int     `json:"pending_images"`
		ProgressPercent float64 `json:"progress_percent"`
	}{
		alias:           alias(r),
		PendingImages:   r.PendingImages(),
		ProgressPercent: r.ProgressPercent(),
	})
}
