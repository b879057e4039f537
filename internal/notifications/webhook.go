package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/trahn-agent/internal/httputil"
	"github.com/rs/zerolog"
)

const defaultBotName = "TrahnAgent"

// Sender posts agent events to a Slack- or Discord-compatible webhook.
// With no webhook configured messages are only logged.
type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        zerolog.Logger
}

func NewSender(webhookURL, botName string, logger zerolog.Logger) *Sender {
	if botName == "" {
		botName = defaultBotName
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
		log: logger.With().Str("component", "notify").Logger(),
	}
}

// Send delivers msg, logging rather than returning delivery failures.
func (s *Sender) Send(msg string) {
	s.log.Info().Str("bot", s.botName).Msg(msg)

	if s.webhookURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.post(ctx, fmt.Sprintf("[%s] %s", s.botName, msg)); err != nil {
		s.log.Error().Err(err).Msg("webhook delivery failed")
	}
}

func (s *Sender) post(ctx context.Context, msg string) error {
	body, err := json.Marshal(s.formatPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

type slackPayload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

type discordPayload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

func (s *Sender) formatPayload(msg string) any {
	if strings.Contains(s.webhookURL, "discord") {
		return discordPayload{Content: msg, Username: s.botName}
	}
	return slackPayload{Text: fmt.Sprintf("`%s`", msg), Username: s.botName}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
