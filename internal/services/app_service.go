package services

import (
	"context"

	"github.com/fathima-sithara/files-service/internal/repository"
)

// PingFunc reports whether a backing store answers.
type PingFunc func(ctx context.Context) error

type appService struct {
	redisPing PingFunc
	dbPing    PingFunc
	users     repository.UserRepository
	files     repository.FileStore
}

func NewAppService(redisPing, dbPing PingFunc, users repository.UserRepository, files repository.FileStore) AppService {
	return &appService{redisPing: redisPing, dbPing: dbPing, users: users, files: files}
}

func alive(ctx context.Context, ping PingFunc) bool {
	return ping != nil && ping(ctx) == nil
}

func (s *appService) Status(ctx context.Context) Status {
	return Status{Redis: alive(ctx, s.redisPing), DB: alive(ctx, s.dbPing)}
}

func (s *appService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, wrapInternal("count users", err)
	}
	files, err := s.files.Count(ctx)
	if err != nil {
		return nil, wrapInternal("count files", err)
	}
	return &Stats{Users: users, Files: files}, nil
}
