package notification

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

//go:embed templates/*.html
var templateFS embed.FS

var welcomeTemplate = template.Must(template.ParseFS(templateFS, "templates/welcome.html"))

type EmailConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	// Endpoint overrides the Brevo API URL.
	Endpoint string
}

// EmailNotifier sends the welcome mail through the Brevo HTTP API v3. Calls
// go through a circuit breaker so a Brevo outage fails jobs fast.
type EmailNotifier struct {
	cfg    EmailConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewEmailNotifier(cfg EmailConfig, logger *zap.Logger) *EmailNotifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = brevoEndpoint
	}
	st := gobreaker.Settings{
		Name:        "brevo",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &EmailNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

func (e *EmailNotifier) Welcome(ctx context.Context, user *models.User) error {
	var html bytes.Buffer
	if err := welcomeTemplate.Execute(&html, user); err != nil {
		return err
	}
	payload := map[string]any{
		"sender":      map[string]string{"name": e.cfg.SenderName, "email": e.cfg.SenderEmail},
		"to":          []map[string]string{{"email": user.Email}},
		"subject":     "Welcome!",
		"htmlContent": html.String(),
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return err
	}

	_, err := e.cb.Execute(func() (interface{}, error) {
		return nil, e.send(ctx, body.Bytes())
	})
	if err != nil {
		return fmt.Errorf("welcome mail to %s: %w", user.Email, err)
	}
	e.logger.Info("email sent", zap.String("to", user.Email))
	return nil
}

func (e *EmailNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	e.logger.Warn("brevo send failed", zap.Int("status", resp.StatusCode))
	return fmt.Errorf("brevo send failed status=%d", resp.StatusCode)
}
