package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestFileService(t *testing.T) (FileService, *repository.MemoryFileStore, *storage.LocalStore) {
	t.Helper()
	files := repository.NewMemoryFileStore()
	blobs := storage.NewLocalStore(t.TempDir())
	return NewFileService(files, blobs, []int{500, 250, 100}), files, blobs
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestCreateFile_EndToEnd(t *testing.T) {
	svc, _, blobs := newTestFileService(t)
	ctx := context.Background()
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()

	f, err := svc.CreateFile(ctx, owner, "a.txt", models.FileTypeFile, models.Root(), false, b64("hi"))
	require.NoError(t, err)
	assert.False(t, f.ID.IsZero())
	assert.NotEmpty(t, f.LocalPath)

	data, err := blobs.Read(ctx, f.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	got, err := svc.GetByID(ctx, f.ID.Hex(), owner)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Name)
	assert.Equal(t, models.FileTypeFile, got.Type)
	assert.True(t, got.ParentID.IsRoot())

	_, err = svc.GetByID(ctx, f.ID.Hex(), other)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex(), owner)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(ctx, "not-an-id", owner)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_ParentRules(t *testing.T) {
	svc, _, _ := newTestFileService(t)
	ctx := context.Background()
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()

	folder, err := svc.CreateFolder(ctx, owner, "docs", models.Root(), false)
	require.NoError(t, err)
	assert.Empty(t, folder.LocalPath)

	child, err := svc.CreateFile(ctx, owner, "b.txt", models.FileTypeFile, models.Folder(folder.ID), false, b64("x"))
	require.NoError(t, err)
	id, ok := child.ParentID.FolderID()
	require.True(t, ok)
	assert.Equal(t, folder.ID, id)

	_, err = svc.CreateFile(ctx, other, "c.txt", models.FileTypeFile, models.Folder(folder.ID), false, b64("x"))
	assert.ErrorIs(t, err, ErrParentNotFound)

	_, err = svc.CreateFolder(ctx, owner, "sub", models.Folder(primitive.NewObjectID()), false)
	assert.ErrorIs(t, err, ErrParentNotFound)

	_, err = svc.CreateFolder(ctx, owner, "sub", models.Folder(child.ID), false)
	assert.ErrorIs(t, err, ErrParentNotFolder)
}

func TestCreate_Validation(t *testing.T) {
	svc, files, _ := newTestFileService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	tests := []struct {
		name string
		call func() error
		want *ValidationError
	}{
		{"folder without name", func() error {
			_, err := svc.CreateFolder(ctx, owner, "", models.Root(), false)
			return err
		}, ErrMissingName},
		{"file without name", func() error {
			_, err := svc.CreateFile(ctx, owner, "", models.FileTypeFile, models.Root(), false, b64("x"))
			return err
		}, ErrMissingName},
		{"unknown type", func() error {
			_, err := svc.CreateFile(ctx, owner, "a", models.FileType("video"), models.Root(), false, b64("x"))
			return err
		}, ErrMissingType},
		{"folder through CreateFile", func() error {
			_, err := svc.CreateFile(ctx, owner, "a", models.FileTypeFolder, models.Root(), false, b64("x"))
			return err
		}, ErrMissingType},
		{"no data", func() error {
			_, err := svc.CreateFile(ctx, owner, "a", models.FileTypeImage, models.Root(), false, "")
			return err
		}, ErrMissingData},
		{"undecodable data", func() error {
			_, err := svc.CreateFile(ctx, owner, "a", models.FileTypeFile, models.Root(), false, "%%%")
			return err
		}, ErrMissingData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			v, ok := AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.want.Reason, v.Reason)
		})
	}

	n, _ := files.Count(ctx)
	assert.Zero(t, n)
}

func TestListChildren_Pages(t *testing.T) {
	svc, _, _ := newTestFileService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	for i := 0; i < 25; i++ {
		_, err := svc.CreateFolder(ctx, owner, fmt.Sprintf("f%02d", i), models.Root(), false)
		require.NoError(t, err)
	}
	_, err := svc.CreateFolder(ctx, primitive.NewObjectID(), "foreign", models.Root(), false)
	require.NoError(t, err)

	first, err := svc.ListChildren(ctx, owner, models.Root(), 0)
	require.NoError(t, err)
	require.Len(t, first, PageSize)
	assert.Equal(t, "f00", first[0].Name)

	second, err := svc.ListChildren(ctx, owner, models.Root(), 1)
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, "f20", second[0].Name)

	third, err := svc.ListChildren(ctx, owner, models.Root(), 2)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestPublication(t *testing.T) {
	svc, _, _ := newTestFileService(t)
	pub := NewPublicationService(svc)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	f, err := svc.CreateFolder(ctx, owner, "pics", models.Root(), false)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := pub.Publish(ctx, f.ID.Hex(), owner)
		require.NoError(t, err)
		assert.True(t, got.IsPublic)
	}
	got, err := pub.Unpublish(ctx, f.ID.Hex(), owner)
	require.NoError(t, err)
	assert.False(t, got.IsPublic)

	_, err = pub.Publish(ctx, f.ID.Hex(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	stored, err := svc.GetByID(ctx, f.ID.Hex(), owner)
	require.NoError(t, err)
	assert.False(t, stored.IsPublic)
}

func TestReadData(t *testing.T) {
	svc, _, blobs := newTestFileService(t)
	ctx := context.Background()
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()

	f, err := svc.CreateFile(ctx, owner, "cat.png", models.FileTypeImage, models.Root(), false, b64("png-bytes"))
	require.NoError(t, err)

	_, data, err := svc.ReadData(ctx, f.ID.Hex(), owner, 0)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, _, err = svc.ReadData(ctx, f.ID.Hex(), stranger, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.ReadData(ctx, f.ID.Hex(), primitive.NilObjectID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetPublic(ctx, f.ID.Hex(), owner, true)
	require.NoError(t, err)
	_, data, err = svc.ReadData(ctx, f.ID.Hex(), primitive.NilObjectID, 0)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, _, err = svc.ReadData(ctx, f.ID.Hex(), owner, 250)
	assert.ErrorIs(t, err, ErrNotFound, "thumbnail not generated yet")
	require.NoError(t, blobs.Write(ctx, storage.DerivedPath(f.LocalPath, 250), []byte("thumb")))
	_, data, err = svc.ReadData(ctx, f.ID.Hex(), stranger, 250)
	require.NoError(t, err)
	assert.Equal(t, "thumb", string(data))

	_, _, err = svc.ReadData(ctx, f.ID.Hex(), owner, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	folder, err := svc.CreateFolder(ctx, owner, "dir", models.Root(), true)
	require.NoError(t, err)
	_, _, err = svc.ReadData(ctx, folder.ID.Hex(), owner, 0)
	assert.ErrorIs(t, err, ErrFolderNoContent)
}

type downFileStore struct {
	repository.FileStore
}

func (downFileStore) FindOwned(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.File, error) {
	return nil, errors.New("server selection timeout")
}

func TestStoreFailureIsInternal(t *testing.T) {
	svc := NewFileService(downFileStore{repository.NewMemoryFileStore()}, storage.NewLocalStore(t.TempDir()), nil)
	owner := primitive.NewObjectID()

	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex(), owner)
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateFolder(context.Background(), owner, "x", models.Folder(primitive.NewObjectID()), false)
	assert.ErrorIs(t, err, ErrInternal)
}
