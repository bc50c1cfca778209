// Package monitoring sends best-effort operator notifications to a
// chat channel. Nothing here may ever fail a pipeline run.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"astromatic/config"
)

const defaultBaseURL = "https://api.telegram.org"

// Notifier posts messages to one chat via the bot API.
type Notifier struct {
	// BaseURL is overridable for tests.
	BaseURL string

	http     *http.Client
	botToken string
	chatID   string
}

// NewNotifier builds a notifier; missing credentials are allowed and
// make every Send a silent no-op.
func NewNotifier(env *config.Env, timeout time.Duration) *Notifier {
	return &Notifier{
		BaseURL:  defaultBaseURL,
		http:     &http.Client{Timeout: timeout},
		botToken: env.TelegramBotToken,
		chatID:   env.TelegramChatID,
	}
}

// Send delivers one HTML-formatted message. Failures are logged and
// swallowed; notification delivery is never worth failing a run over.
func (n *Notifier) Send(ctx context.Context, message string) {
	if n.botToken == "" || n.chatID == "" {
		log.Debug().Msg("Notification skipped: bot token or chat ID not provided.")
		return
	}

	body, err := json.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       message,
		"parse_mode": "HTML",
	})
	if err != nil {
		log.Error().Err(err).Msg("Notification failed")
		return
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.BaseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Notification failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Notification failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("Notification failed")
		return
	}
	log.Debug().Msg("Notification sent.")
}
