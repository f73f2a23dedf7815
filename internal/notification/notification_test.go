package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingNotifier struct {
	greeted []string
	err     error
}

func (r *recordingNotifier) Welcome(_ context.Context, u *models.User) error {
	if r.err != nil {
		return r.err
	}
	r.greeted = append(r.greeted, u.Email)
	return nil
}

func welcomeJob(t *testing.T, userID string) *queue.Job {
	t.Helper()
	q := queue.NewMemoryQueue(queue.DefaultPolicy())
	_, err := q.Enqueue(context.Background(), queue.KindWelcome, models.WelcomeJob{UserID: userID})
	require.NoError(t, err)
	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	return job
}

func TestPipelineGreetsUser(t *testing.T) {
	users := repository.NewMemoryUserRepo()
	u := &models.User{Email: "bob@dylan.com"}
	require.NoError(t, users.Create(context.Background(), u))

	n := &recordingNotifier{}
	p := NewPipeline(users, n)
	require.NoError(t, p.Handle(context.Background(), welcomeJob(t, u.ID.Hex())))
	assert.Equal(t, []string{"bob@dylan.com"}, n.greeted)
}

func TestPipelineFailures(t *testing.T) {
	users := repository.NewMemoryUserRepo()
	u := &models.User{Email: "bob@dylan.com"}
	require.NoError(t, users.Create(context.Background(), u))
	p := NewPipeline(users, &recordingNotifier{})

	err := p.Handle(context.Background(), welcomeJob(t, ""))
	assert.ErrorIs(t, err, ErrMissingUserID)
	assert.True(t, queue.IsPermanent(err))

	err = p.Handle(context.Background(), welcomeJob(t, primitive.NewObjectID().Hex()))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.True(t, queue.IsPermanent(err))

	flaky := NewPipeline(users, &recordingNotifier{err: errors.New("smtp down")})
	err = flaky.Handle(context.Background(), welcomeJob(t, u.ID.Hex()))
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	require.NoError(t, n.Welcome(context.Background(), &models.User{ID: primitive.NewObjectID(), Email: "bob@dylan.com"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Welcome bob@dylan.com!", logs.All()[0].Message)
}

func TestEmailNotifierSendsBrevoRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewEmailNotifier(EmailConfig{APIKey: "secret", SenderEmail: "noreply@files.dev", SenderName: "Files", Endpoint: srv.URL}, zap.NewNop())
	require.NoError(t, n.Welcome(context.Background(), &models.User{Email: "bob@dylan.com"}))

	assert.Equal(t, "Welcome!", got["subject"])
	assert.Contains(t, got["htmlContent"], "Welcome bob@dylan.com!")
	to := got["to"].([]any)[0].(map[string]any)
	assert.Equal(t, "bob@dylan.com", to["email"])
}

func TestEmailNotifierBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewEmailNotifier(EmailConfig{Endpoint: srv.URL}, zap.NewNop())
	user := &models.User{Email: "bob@dylan.com"}
	for i := 0; i < 5; i++ {
		assert.Error(t, n.Welcome(context.Background(), user))
	}
	err := n.Welcome(context.Background(), user)
	assert.Error(t, err)
	assert.Equal(t, int32(5), hits.Load())
}
