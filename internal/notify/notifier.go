// Package notify delivers entry and exit signal notifications.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// ErrNotConfigured is returned when a channel has no transport or recipients
var ErrNotConfigured = errors.New("notifier not configured")

// Notifier delivers a signal event
type Notifier interface {
	Notify(ctx context.Context, evt models.SignalEvent) error
	Name() string
}

// Multi fans a notification out to several notifiers. The result is the
// primary (first) notifier's; failures of the others are only logged.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewMulti creates a Multi notifier
func NewMulti(logger *slog.Logger, notifiers ...Notifier) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{notifiers: notifiers, logger: logger}
}

// Name implements Notifier
func (m *Multi) Name() string {
	if len(m.notifiers) == 0 {
		return "none"
	}
	return m.notifiers[0].Name()
}

// Notify implements Notifier
func (m *Multi) Notify(ctx context.Context, evt models.SignalEvent) error {
	if len(m.notifiers) == 0 {
		return ErrNotConfigured
	}
	var primary error
	for i, n := range m.notifiers {
		err := n.Notify(ctx, evt)
		if i == 0 {
			primary = err
			continue
		}
		if err != nil {
			m.logger.Warn("secondary notifier failed",
				"notifier", n.Name(), "symbol", evt.Symbol, "kind", evt.Kind, "error", err)
		}
	}
	return primary
}
