package notifier

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirphl/signal-trader/internal/utils"
)

const telegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	Token  string
	ChatID string
	// Prefix is prepended to every message, e.g. the bot and symbol name.
	Prefix string

	baseURL string
	client  *http.Client
	policy  RetryPolicy
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		Token:   token,
		ChatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
		policy:  DefaultRetryPolicy,
	}
}

// WithRetryPolicy overrides the retry policy.
func (t *TelegramNotifier) WithRetryPolicy(p RetryPolicy) *TelegramNotifier {
	t.policy = p
	return t
}

func (t *TelegramNotifier) Send(message string) error {
	if t.Prefix != "" {
		message = t.Prefix + " " + message
	}
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(t.baseURL, "/"), t.Token)
	resp, err := t.client.PostForm(apiURL, url.Values{
		"chat_id": {t.ChatID},
		"text":    {message},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram send failed: %s", resp.Status)
	}
	return nil
}

// SendWithRetry sends msg, retrying transient failures. The final failure is logged and returned.
func (t *TelegramNotifier) SendWithRetry(msg string) error {
	err := t.policy.do(func() error { return t.Send(msg) })
	if err != nil {
		utils.GetLogger().Printf("Notifier | telegram: %v", err)
	}
	return err
}

func (t *TelegramNotifier) RetryWithNotification(action func() error, description string) error {
	return retryWithNotification(t.policy, t.SendWithRetry, action, description)
}
