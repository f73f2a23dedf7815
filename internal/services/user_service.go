package services

import (
	"context"
	"errors"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	users   repository.UserRepository
	welcome Enqueuer
	cost    int
	logger  *zap.Logger
}

// NewUserService registers users and queues their welcome job. A zero cost
// uses bcrypt.DefaultCost.
func NewUserService(users repository.UserRepository, welcome Enqueuer, cost int, logger *zap.Logger) UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userService{users: users, welcome: welcome, cost: cost, logger: logger}
}

func (s *userService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, wrapInternal("hash password", err)
	}
	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, wrapInternal("create user", err)
	}

	job, err := s.welcome.Enqueue(ctx, queue.KindWelcome, models.WelcomeJob{UserID: user.ID.Hex()})
	if err != nil {
		s.logger.Error("enqueue welcome job", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	} else {
		s.logger.Debug("welcome job queued", zap.String("job_id", job.ID), zap.String("user_id", user.ID.Hex()))
	}
	return user, nil
}
