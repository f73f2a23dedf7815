package services

import (
	"context"
	"errors"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the fixed number of records returned by ListChildren.
const PageSize = 20

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrUserExists   = errors.New("already exist")
	ErrInternal     = errors.New("internal server error")
)

// ValidationError carries the reason shown to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrMissingName     = &ValidationError{Reason: "Missing name"}
	ErrMissingType     = &ValidationError{Reason: "Missing type"}
	ErrMissingData     = &ValidationError{Reason: "Missing data"}
	ErrParentNotFound  = &ValidationError{Reason: "Parent not found"}
	ErrParentNotFolder = &ValidationError{Reason: "Parent is not a folder"}
	ErrMissingEmail    = &ValidationError{Reason: "Missing email"}
	ErrMissingPassword = &ValidationError{Reason: "Missing password"}
	ErrFolderNoContent = &ValidationError{Reason: "A folder doesn't have content"}
)

// AsValidation reports whether err is (or wraps) a ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Enqueuer is the producing half of a job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind queue.Kind, payload any) (*queue.Job, error)
}

// FileService owns the per-user file hierarchy.
type FileService interface {
	CreateFolder(ctx context.Context, ownerID primitive.ObjectID, name string, parent models.ParentID, isPublic bool) (*models.File, error)
	// CreateFile decodes base64 data into a fresh blob and records it.
	CreateFile(ctx context.Context, ownerID primitive.ObjectID, name string, kind models.FileType, parent models.ParentID, isPublic bool, data string) (*models.File, error)
	GetByID(ctx context.Context, id string, ownerID primitive.ObjectID) (*models.File, error)
	ListChildren(ctx context.Context, ownerID primitive.ObjectID, parent models.ParentID, page int) ([]*models.File, error)
	SetPublic(ctx context.Context, id string, ownerID primitive.ObjectID, value bool) (*models.File, error)
	// ReadData returns the content of a public file, or of a private one
	// when viewerID owns it. Size selects a derived thumbnail; 0 means the
	// original blob.
	ReadData(ctx context.Context, id string, viewerID primitive.ObjectID, size int) (*models.File, []byte, error)
}

type PublicationService interface {
	Publish(ctx context.Context, id string, ownerID primitive.ObjectID) (*models.File, error)
	Unpublish(ctx context.Context, id string, ownerID primitive.ObjectID) (*models.File, error)
}

type AuthService interface {
	// Connect checks a Basic authorization header and opens a session.
	Connect(ctx context.Context, authorization string) (string, error)
	Disconnect(ctx context.Context, token string) error
	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

type Status struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}

type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

type AppService interface {
	Status(ctx context.Context) Status
	Stats(ctx context.Context) (*Stats, error)
}
