package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type failingRenderer struct {
	failAt int
	calls  []int
}

func (r *failingRenderer) Render(_ context.Context, _ []byte, width int) ([]byte, error) {
	r.calls = append(r.calls, width)
	if width == r.failAt {
		return nil, errors.New("render blew up")
	}
	return []byte{byte(width)}, nil
}

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	files *repository.MemoryFileStore
	blobs *storage.LocalStore
	file  *models.File
}

func newFixture(t *testing.T, data []byte) fixture {
	t.Helper()
	ctx := context.Background()
	files := repository.NewMemoryFileStore()
	blobs := storage.NewLocalStore(t.TempDir())
	loc, err := blobs.Create(ctx, data)
	require.NoError(t, err)
	f := &models.File{
		UserID:    primitive.NewObjectID(),
		Name:      "cat.png",
		Type:      models.FileTypeImage,
		ParentID:  models.Root(),
		LocalPath: loc,
	}
	require.NoError(t, files.Insert(ctx, f))
	return fixture{files: files, blobs: blobs, file: f}
}

func thumbnailJob(t *testing.T, payload models.ThumbnailJob) *queue.Job {
	t.Helper()
	q := queue.NewMemoryQueue(queue.DefaultPolicy())
	_, err := q.Enqueue(context.Background(), queue.KindThumbnail, payload)
	require.NoError(t, err)
	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	return job
}

func (f fixture) payload() models.ThumbnailJob {
	return models.ThumbnailJob{FileID: f.file.ID.Hex(), UserID: f.file.UserID.Hex()}
}

func TestPipelineWritesAllWidths(t *testing.T) {
	fx := newFixture(t, samplePNG(t, 800, 400))
	p := NewPipeline(fx.files, fx.blobs, ImagingRenderer{}, nil, zap.NewNop(), nil)

	require.NoError(t, p.Handle(context.Background(), thumbnailJob(t, fx.payload())))

	for _, w := range DefaultWidths {
		data, err := fx.blobs.Read(context.Background(), storage.DerivedPath(fx.file.LocalPath, w))
		require.NoError(t, err, "width %d", w)
		img, format, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, w, img.Bounds().Dx())
		assert.Equal(t, w/2, img.Bounds().Dy())
	}
}

func TestPipelineAbortsOnFirstFailure(t *testing.T) {
	fx := newFixture(t, []byte("source"))
	r := &failingRenderer{failAt: 250}
	p := NewPipeline(fx.files, fx.blobs, r, []int{500, 250, 100}, zap.NewNop(), nil)
	ctx := context.Background()

	err := p.Handle(ctx, thumbnailJob(t, fx.payload()))
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))
	assert.Equal(t, []int{500, 250}, r.calls)

	_, err = fx.blobs.Read(ctx, storage.DerivedPath(fx.file.LocalPath, 500))
	assert.NoError(t, err)
	for _, w := range []int{250, 100} {
		_, err = fx.blobs.Read(ctx, storage.DerivedPath(fx.file.LocalPath, w))
		assert.ErrorIs(t, err, storage.ErrBlobNotFound, "width %d", w)
	}
}

func TestPipelineFailedJobEndsFailed(t *testing.T) {
	fx := newFixture(t, []byte("source"))
	p := NewPipeline(fx.files, fx.blobs, &failingRenderer{failAt: 250}, nil, zap.NewNop(), nil)
	q := queue.NewMemoryQueue(queue.Policy{MaxAttempts: 3})
	ctx := context.Background()

	enq, err := q.Enqueue(ctx, queue.KindThumbnail, fx.payload())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		job, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NoError(t, q.Fail(ctx, job, p.Handle(ctx, job)))
	}
	stored, _ := q.Get(enq.ID)
	assert.Equal(t, queue.StateFailed, stored.State)
	assert.Equal(t, 3, stored.Attempt)

	_, err = fx.blobs.Read(ctx, storage.DerivedPath(fx.file.LocalPath, 500))
	assert.NoError(t, err)
	_, err = fx.blobs.Read(ctx, storage.DerivedPath(fx.file.LocalPath, 100))
	assert.ErrorIs(t, err, storage.ErrBlobNotFound)
}

func TestPipelinePermanentFailures(t *testing.T) {
	fx := newFixture(t, []byte("source"))
	p := NewPipeline(fx.files, fx.blobs, &failingRenderer{}, nil, zap.NewNop(), nil)

	tests := []struct {
		name    string
		payload models.ThumbnailJob
		want    error
	}{
		{"missing file id", models.ThumbnailJob{UserID: fx.file.UserID.Hex()}, ErrMissingFileID},
		{"missing user id", models.ThumbnailJob{FileID: fx.file.ID.Hex()}, ErrMissingUserID},
		{"unknown file", models.ThumbnailJob{FileID: primitive.NewObjectID().Hex(), UserID: fx.file.UserID.Hex()}, ErrFileNotFound},
		{"someone else's file", models.ThumbnailJob{FileID: fx.file.ID.Hex(), UserID: primitive.NewObjectID().Hex()}, ErrFileNotFound},
		{"malformed id", models.ThumbnailJob{FileID: "xyz", UserID: fx.file.UserID.Hex()}, ErrFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Handle(context.Background(), thumbnailJob(t, tt.payload))
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, queue.IsPermanent(err))
		})
	}
}

func TestPipelineUndecodableIsPermanent(t *testing.T) {
	fx := newFixture(t, []byte("definitely not an image"))
	p := NewPipeline(fx.files, fx.blobs, ImagingRenderer{}, nil, zap.NewNop(), nil)

	err := p.Handle(context.Background(), thumbnailJob(t, fx.payload()))
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.True(t, queue.IsPermanent(err))
}
