package services

import (
	"context"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type publicationService struct {
	files FileService
}

func NewPublicationService(files FileService) PublicationService {
	return &publicationService{files: files}
}

func (s *publicationService) Publish(ctx context.Context, id string, ownerID primitive.ObjectID) (*models.File, error) {
	return s.files.SetPublic(ctx, id, ownerID, true)
}

func (s *publicationService) Unpublish(ctx context.Context, id string, ownerID primitive.ObjectID) (*models.File, error) {
	return s.files.SetPublic(ctx, id, ownerID, false)
}
