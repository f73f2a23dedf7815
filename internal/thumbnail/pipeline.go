// Package thumbnail derives fixed-width thumbnails for uploaded images.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultWidths are rendered largest first.
var DefaultWidths = []int{500, 250, 100}

var (
	ErrMissingFileID = errors.New("missing fileId")
	ErrMissingUserID = errors.New("missing userId")
	ErrFileNotFound  = errors.New("file not found")
	ErrNoContent     = errors.New("file has no content")
)

type Pipeline struct {
	files    repository.FileStore
	blobs    storage.BlobStore
	renderer Renderer
	widths   []int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewPipeline(files repository.FileStore, blobs storage.BlobStore, renderer Renderer, widths []int, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	return &Pipeline{
		files:    files,
		blobs:    blobs,
		renderer: renderer,
		widths:   widths,
		logger:   logger,
		metrics:  m,
	}
}

func (p *Pipeline) load(ctx context.Context, payload models.ThumbnailJob) (*models.File, error) {
	if payload.FileID == "" {
		return nil, queue.Permanent(ErrMissingFileID)
	}
	if payload.UserID == "" {
		return nil, queue.Permanent(ErrMissingUserID)
	}
	fileID, err := primitive.ObjectIDFromHex(payload.FileID)
	if err != nil {
		return nil, queue.Permanent(ErrFileNotFound)
	}
	userID, err := primitive.ObjectIDFromHex(payload.UserID)
	if err != nil {
		return nil, queue.Permanent(ErrFileNotFound)
	}
	f, err := p.files.FindOwned(ctx, fileID, userID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, queue.Permanent(ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}
	if f.LocalPath == "" {
		return nil, queue.Permanent(ErrNoContent)
	}
	return f, nil
}

// Handle renders every width in order and stops at the first failure.
// Widths already written are left in place.
func (p *Pipeline) Handle(ctx context.Context, job *queue.Job) error {
	var payload models.ThumbnailJob
	if err := job.Decode(&payload); err != nil {
		return queue.Permanent(err)
	}
	f, err := p.load(ctx, payload)
	if err != nil {
		return err
	}
	src, err := p.blobs.Read(ctx, f.LocalPath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	for _, w := range p.widths {
		thumb, err := p.renderer.Render(ctx, src, w)
		if errors.Is(err, ErrUndecodable) {
			return queue.Permanent(err)
		}
		if err != nil {
			return fmt.Errorf("render %d: %w", w, err)
		}
		if err := p.blobs.Write(ctx, storage.DerivedPath(f.LocalPath, w), thumb); err != nil {
			return fmt.Errorf("write %d: %w", w, err)
		}
		if p.metrics != nil {
			p.metrics.ThumbnailsSaved.WithLabelValues(strconv.Itoa(w)).Inc()
		}
		p.logger.Debug("thumbnail written", zap.String("file_id", payload.FileID), zap.Int("width", w))
	}
	return nil
}
