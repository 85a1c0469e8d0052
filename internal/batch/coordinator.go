package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/deepsight/internal/config"
	"github.com/MeKo-Tech/deepsight/internal/pipeline"
	"github.com/MeKo-Tech/deepsight/internal/progress"
)

var (
	// ErrInvalidFolder means the batch folder does not exist or is not a
	// directory.
	ErrInvalidFolder = errors.New("invalid batch folder")
	// ErrNoImages means the folder contains no supported images.
	ErrNoImages = errors.New("no supported images in folder")
)

// Processor runs the per-image pipeline. The result is always usable; a
// non-nil error marks the image as failed for batch bookkeeping.
type Processor interface {
	Process(ctx context.Context, imagePath string, saveToStorage bool) (*pipeline.ImageResult, error)
}

// Coordinator starts and tracks batches. Each batch runs in its own
// goroutine, processing images strictly sequentially and checkpointing
// progress to the folder's progress file.
type Coordinator struct {
	registry  *Registry
	store     *progress.Store
	processor Processor
	cfg       config.BatchConfig
}

// NewCoordinator wires the coordinator's collaborators.
func NewCoordinator(registry *Registry, store *progress.Store, processor Processor, cfg config.BatchConfig) *Coordinator {
	return &Coordinator{
		registry:  registry,
		store:     store,
		processor: processor,
		cfg:       cfg,
	}
}

// Start validates the folder, diffs against persisted progress, registers
// the batch, and spawns its worker goroutine. It returns the batch ID
// immediately; progress is observed through Status. The worker is detached
// from ctx's cancellation: the batch outlives the request that started it.
func (c *Coordinator) Start(ctx context.Context, folder string, recursive bool) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFolder, folder)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInvalidFolder, folder)
	}

	images, err := DiscoverImages(abs, recursive)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate images: %w", err)
	}
	if len(images) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoImages, abs)
	}

	done := c.store.Load(abs)

	var remaining []string
	var processed []string
	for _, img := range images {
		if _, ok := done[img]; ok {
			processed = append(processed, img)
		} else {
			remaining = append(remaining, img)
		}
	}

	rec := &Record{
		BatchID:         uuid.NewString(),
		FolderPath:      abs,
		Status:          StatusPending,
		TotalImages:     len(images),
		CompletedImages: len(processed),
		ProcessedFiles:  processed,
	}
	c.registry.Insert(rec)

	slog.Info("batch registered",
		"batch_id", rec.BatchID,
		"folder", abs,
		"total", len(images),
		"already_done", len(processed),
		"remaining", len(remaining))

	go c.run(context.WithoutCancel(ctx), rec.BatchID, abs, remaining, done)

	return rec.BatchID, nil
}

// run is the per-batch worker. It owns the done map exclusively; the
// registry lock is only taken for record updates, never across processing or
// progress writes.
func (c *Coordinator) run(ctx context.Context, batchID, folder string, remaining []string, done map[string]pipeline.ImageResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("batch aborted", "batch_id", batchID, "panic", r)
			c.finish(batchID, StatusFailed, fmt.Sprintf("batch aborted: %v", r))
		}
	}()

	c.registry.Update(batchID, func(rec *Record) {
		rec.Status = StatusProcessing
		if rec.StartTime == "" {
			rec.StartTime = time.Now().UTC().Format(time.RFC3339)
		}
	})

	for idx, imagePath := range remaining {
		c.registry.Update(batchID, func(rec *Record) {
			rec.CurrentImage = imagePath
		})

		result, err := c.processor.Process(ctx, imagePath, c.cfg.SaveToStorage)
		if err != nil {
			slog.Warn("image failed", "batch_id", batchID, "image", imagePath, "error", err)
			c.registry.Update(batchID, func(rec *Record) {
				rec.FailedImages++
				rec.FailedFiles = append(rec.FailedFiles, imagePath)
			})
		} else {
			done[imagePath] = *result
			c.registry.Update(batchID, func(rec *Record) {
				rec.CompletedImages++
				rec.ProcessedFiles = append(rec.ProcessedFiles, imagePath)
			})
		}

		if (idx+1)%c.cfg.CheckpointInterval == 0 {
			c.checkpoint(batchID, folder, done)
		}
	}

	c.checkpoint(batchID, folder, done)
	c.finish(batchID, StatusCompleted, "")

	slog.Info("batch finished", "batch_id", batchID, "folder", folder)
}

// checkpoint persists the done map to the folder's progress file. Failures
// are logged, not fatal; the next checkpoint retries.
func (c *Coordinator) checkpoint(batchID, folder string, done map[string]pipeline.ImageResult) {
	if err := c.store.Save(folder, done); err != nil {
		slog.Warn("progress checkpoint failed", "batch_id", batchID, "folder", folder, "error", err)
	}
}

// finish moves the batch to a terminal status, setting the end timestamp
// once.
func (c *Coordinator) finish(batchID string, status Status, errMsg string) {
	c.registry.Update(batchID, func(rec *Record) {
		if rec.Finished() {
			return
		}
		rec.Status = status
		rec.CurrentImage = ""
		rec.Error = errMsg
		if rec.EndTime == "" {
			rec.EndTime = time.Now().UTC().Format(time.RFC3339)
		}
	})
}

// Status returns a snapshot of one batch.
func (c *Coordinator) Status(batchID string) (Record, bool) {
	return c.registry.Get(batchID)
}

// AllStatuses returns a snapshot of every tracked batch.
func (c *Coordinator) AllStatuses() map[string]Record {
	return c.registry.Snapshot()
}

// Delete removes a finished batch record.
func (c *Coordinator) Delete(batchID string) error {
	return c.registry.Delete(batchID)
}
