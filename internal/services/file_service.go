package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fileService struct {
	files  repository.FileStore
	blobs  storage.BlobStore
	widths []int
}

// NewFileService builds the file hierarchy service. widths lists the
// thumbnail sizes ReadData accepts.
func NewFileService(files repository.FileStore, blobs storage.BlobStore, widths []int) FileService {
	return &fileService{files: files, blobs: blobs, widths: widths}
}

func wrapInternal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

// checkParent requires a non-root parent to be a folder owned by ownerID.
func (s *fileService) checkParent(ctx context.Context, ownerID primitive.ObjectID, parent models.ParentID) error {
	id, ok := parent.FolderID()
	if !ok {
		return nil
	}
	p, err := s.files.FindOwned(ctx, id, ownerID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return wrapInternal("find parent", err)
	}
	if !p.IsFolder() {
		return ErrParentNotFolder
	}
	return nil
}

func (s *fileService) CreateFolder(ctx context.Context, ownerID primitive.ObjectID, name string, parent models.ParentID, isPublic bool) (*models.File, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	if err := s.checkParent(ctx, ownerID, parent); err != nil {
		return nil, err
	}
	f := &models.File{
		UserID:   ownerID,
		Name:     name,
		Type:     models.FileTypeFolder,
		IsPublic: isPublic,
		ParentID: parent,
	}
	if err := s.files.Insert(ctx, f); err != nil {
		return nil, wrapInternal("insert folder", err)
	}
	return f, nil
}

func decodeData(data string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(data)
	}
	return b, err
}

func (s *fileService) CreateFile(ctx context.Context, ownerID primitive.ObjectID, name string, kind models.FileType, parent models.ParentID, isPublic bool, data string) (*models.File, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	if kind != models.FileTypeFile && kind != models.FileTypeImage {
		return nil, ErrMissingType
	}
	if data == "" {
		return nil, ErrMissingData
	}
	if err := s.checkParent(ctx, ownerID, parent); err != nil {
		return nil, err
	}
	raw, err := decodeData(data)
	if err != nil {
		return nil, ErrMissingData
	}

	loc, err := s.blobs.Create(ctx, raw)
	if err != nil {
		return nil, wrapInternal("store blob", err)
	}
	f := &models.File{
		UserID:    ownerID,
		Name:      name,
		Type:      kind,
		IsPublic:  isPublic,
		ParentID:  parent,
		LocalPath: loc,
	}
	if err := s.files.Insert(ctx, f); err != nil {
		return nil, wrapInternal("insert file", err)
	}
	return f, nil
}

func (s *fileService) GetByID(ctx context.Context, id string, ownerID primitive.ObjectID) (*models.File, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	f, err := s.files.FindOwned(ctx, oid, ownerID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapInternal("find file", err)
	}
	return f, nil
}

func (s *fileService) ListChildren(ctx context.Context, ownerID primitive.ObjectID, parent models.ParentID, page int) ([]*models.File, error) {
	if page < 0 {
		page = 0
	}
	files, err := s.files.ListChildren(ctx, ownerID, parent, int64(page)*PageSize, PageSize)
	if err != nil {
		return nil, wrapInternal("list files", err)
	}
	return files, nil
}

func (s *fileService) SetPublic(ctx context.Context, id string, ownerID primitive.ObjectID, value bool) (*models.File, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	f, err := s.files.SetPublic(ctx, oid, ownerID, value)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapInternal("update file", err)
	}
	return f, nil
}

func (s *fileService) ReadData(ctx context.Context, id string, viewerID primitive.ObjectID, size int) (*models.File, []byte, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	f, err := s.files.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, wrapInternal("find file", err)
	}
	if !f.IsPublic && (viewerID.IsZero() || f.UserID != viewerID) {
		return nil, nil, ErrNotFound
	}
	if f.IsFolder() {
		return nil, nil, ErrFolderNoContent
	}

	loc := f.LocalPath
	if size != 0 {
		if !slices.Contains(s.widths, size) {
			return nil, nil, ErrNotFound
		}
		loc = storage.DerivedPath(loc, size)
	}
	data, err := s.blobs.Read(ctx, loc)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, wrapInternal("read blob", err)
	}
	return f, data, nil
}
