// Package notifier
package notifier

import (
	"fmt"
	"time"

	"github.com/amirphl/signal-trader/internal/utils"
)

// Notifier interface for sending notifications (e.g., Telegram, email).
type Notifier interface {
	Send(msg string) error
	SendWithRetry(msg string) error
	RetryWithNotification(action func() error, description string) error
}

// RetryPolicy controls SendWithRetry and RetryWithNotification.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 2 * time.Second}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetryPolicy.Attempts
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// do runs fn up to Attempts times with a linear delay between attempts.
func (p RetryPolicy) do(fn func() error) error {
	p = p.normalized()
	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < p.Attempts {
			time.Sleep(p.Delay)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", p.Attempts, err)
}

// retryWithNotification runs action with policy and reports the final failure through send.
func retryWithNotification(policy RetryPolicy, send func(string) error, action func() error, description string) error {
	err := policy.do(action)
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf("%s failed: %v", description, err)
	if sendErr := send(msg); sendErr != nil {
		utils.GetLogger().Printf("Notifier | failed to report %q: %v", description, sendErr)
	}
	return err
}

// LogNotifier writes notifications to the process log only.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Send(msg string) error {
	utils.GetLogger().Printf("Notifier | %s", msg)
	return nil
}

func (n LogNotifier) SendWithRetry(msg string) error {
	return n.Send(msg)
}

func (n LogNotifier) RetryWithNotification(action func() error, description string) error {
	return retryWithNotification(RetryPolicy{Attempts: 1}, n.Send, action, description)
}
