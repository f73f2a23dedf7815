package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// FileStore persists file documents. Every lookup but FindByID is scoped by
// owner; a document owned by someone else reads as ErrFileNotFound.
type FileStore interface {
	// Insert assigns an id when f.ID is zero.
	Insert(ctx context.Context, f *models.File) error
	FindOwned(ctx context.Context, id, ownerID primitive.ObjectID) (*models.File, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	// ListChildren returns children of parent in creation order.
	ListChildren(ctx context.Context, ownerID primitive.ObjectID, parent models.ParentID, skip, limit int64) ([]*models.File, error)
	SetPublic(ctx context.Context, id, ownerID primitive.ObjectID, value bool) (*models.File, error)
	Count(ctx context.Context) (int64, error)
}

type UserRepository interface {
	// Create fails with ErrUserExists when the email is taken.
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
