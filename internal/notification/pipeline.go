package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMissingUserID = errors.New("missing userId")
	ErrUserNotFound  = errors.New("user not found")
)

// Pipeline handles welcome jobs.
type Pipeline struct {
	users    repository.UserRepository
	notifier Notifier
}

func NewPipeline(users repository.UserRepository, notifier Notifier) *Pipeline {
	return &Pipeline{users: users, notifier: notifier}
}

func (p *Pipeline) Handle(ctx context.Context, job *queue.Job) error {
	var payload models.WelcomeJob
	if err := job.Decode(&payload); err != nil {
		return queue.Permanent(err)
	}
	if payload.UserID == "" {
		return queue.Permanent(ErrMissingUserID)
	}
	id, err := primitive.ObjectIDFromHex(payload.UserID)
	if err != nil {
		return queue.Permanent(ErrUserNotFound)
	}
	user, err := p.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return queue.Permanent(ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	return p.notifier.Welcome(ctx, user)
}
