package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/session"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	users    repository.UserRepository
	sessions *session.Store
}

func NewAuthService(users repository.UserRepository, sessions *session.Store) AuthService {
	return &authService{users: users, sessions: sessions}
}

// parseBasic extracts email and password from "Basic base64(email:password)".
func parseBasic(header string) (string, string, bool) {
	scheme, encoded, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	email, password, ok := strings.Cut(string(raw), ":")
	if !ok || email == "" {
		return "", "", false
	}
	return email, password, true
}

func (s *authService) Connect(ctx context.Context, authorization string) (string, error) {
	email, password, ok := parseBasic(authorization)
	if !ok {
		return "", ErrUnauthorized
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", wrapInternal("find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrUnauthorized
	}
	token, err := s.sessions.Create(ctx, user.ID.Hex())
	if err != nil {
		return "", wrapInternal("create session", err)
	}
	return token, nil
}

func (s *authService) resolve(ctx context.Context, token string) (string, error) {
	uid, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", wrapInternal("resolve session", err)
	}
	return uid, nil
}

func (s *authService) Disconnect(ctx context.Context, token string) error {
	if _, err := s.resolve(ctx, token); err != nil {
		return err
	}
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return wrapInternal("invalidate session", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	uid, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, wrapInternal("find user", err)
	}
	return user, nil
}
