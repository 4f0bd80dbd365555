package notify

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/strategy-forge/internal/models"
)

type sent struct {
	from string
	to   []string
	msg  string
}

func captureSender(out *[]sent, err error) SendFunc {
	return func(_ context.Context, _ SMTPConfig, from string, to []string, msg []byte) error {
		*out = append(*out, sent{from: from, to: to, msg: string(msg)})
		return err
	}
}

func configured() SMTPConfig {
	return SMTPConfig{
		Host:     "smtp.example.com",
		Username: "alerts@example.com",
		Password: "secret",
		To:       []string{"desk@example.com"},
	}
}

func entryEvent() models.SignalEvent {
	return models.SignalEvent{
		Kind:          models.SignalEntry,
		StrategyName:  "Momentum-Sentiment Hybrid",
		Symbol:        "AAPL",
		Date:          "2024-06-03",
		Rules:         []string{"rsi < 35"},
		CurrentValues: map[string]float64{"rsi": 28, "close": 182.5},
	}
}

func TestEmailNotifier(t *testing.T) {
	t.Run("sends to configured recipients", func(t *testing.T) {
		var out []sent
		en := NewEmailNotifier(configured()).WithSender(captureSender(&out, nil))

		require.NoError(t, en.Notify(context.Background(), entryEvent()))
		require.Len(t, out, 1)
		assert.Equal(t, "alerts@example.com", out[0].from)
		assert.Equal(t, []string{"desk@example.com"}, out[0].to)
		assert.Contains(t, out[0].msg, "Subject: [Strategy Forge] ENTRY signal: Momentum-Sentiment Hybrid on AAPL\r\n")
		assert.Contains(t, out[0].msg, "rsi: 28")
		assert.Contains(t, out[0].msg, "  - rsi < 35")
	})

	t.Run("request recipients win", func(t *testing.T) {
		var out []sent
		en := NewEmailNotifier(configured()).WithSender(captureSender(&out, nil))
		evt := entryEvent()
		evt.Recipients = []string{" me@example.com ", ""}

		require.NoError(t, en.Notify(context.Background(), evt))
		assert.Equal(t, []string{"me@example.com"}, out[0].to)
	})

	t.Run("invalid request recipients are dropped", func(t *testing.T) {
		var out []sent
		en := NewEmailNotifier(configured()).WithSender(captureSender(&out, nil))
		evt := entryEvent()
		evt.Recipients = []string{"not an address", "me@example.com\r\nBcc: victim@evil.example", "Desk <desk2@example.com>"}

		require.NoError(t, en.Notify(context.Background(), evt))
		assert.Equal(t, []string{"desk2@example.com"}, out[0].to)
		assert.NotContains(t, out[0].msg, "victim@evil.example")
	})

	t.Run("header values cannot add header lines", func(t *testing.T) {
		var out []sent
		en := NewEmailNotifier(configured()).WithSender(captureSender(&out, nil))
		evt := entryEvent()
		evt.StrategyName = "x\r\nBcc: victim@evil.example\r\nX-Injected: yes"
		evt.Symbol = "AAPL\nX-Other: 1"

		require.NoError(t, en.Notify(context.Background(), evt))
		headers, _, found := strings.Cut(out[0].msg, "\r\n\r\n")
		require.True(t, found)

		lines := strings.Split(headers, "\r\n")
		require.Len(t, lines, 5)
		for _, line := range lines {
			assert.NotRegexp(t, `^(Bcc|X-Injected|X-Other):`, line)
		}
		assert.True(t, strings.HasPrefix(lines[2], "Subject: "))
		assert.Contains(t, lines[2], "Bcc: victim@evil.example")
	})

	t.Run("not configured", func(t *testing.T) {
		en := NewEmailNotifier(SMTPConfig{Host: "smtp.example.com"})
		assert.ErrorIs(t, en.Notify(context.Background(), entryEvent()), ErrNotConfigured)

		cfg := configured()
		cfg.To = nil
		en = NewEmailNotifier(cfg)
		assert.ErrorIs(t, en.Notify(context.Background(), entryEvent()), ErrNotConfigured)
	})

	t.Run("transport failure is wrapped", func(t *testing.T) {
		var out []sent
		boom := errors.New("connection refused")
		en := NewEmailNotifier(configured()).WithSender(captureSender(&out, boom))
		err := en.Notify(context.Background(), entryEvent())
		assert.ErrorIs(t, err, boom)
	})
}

type deadlineFailConn struct {
	net.Conn
	closed bool
}

func (c *deadlineFailConn) SetDeadline(time.Time) error { return errors.New("deadline unsupported") }

func (c *deadlineFailConn) Close() error {
	c.closed = true
	return nil
}

func TestDeliverDeadlineFailure(t *testing.T) {
	conn := &deadlineFailConn{}
	cfg := configured()
	cfg.Timeout = time.Second

	err := deliver(context.Background(), conn, cfg, cfg.Username, cfg.To, []byte("Subject: x\r\n\r\nbody"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set connection deadline")
	assert.True(t, conn.closed)
}

func TestSubjectAndBody(t *testing.T) {
	evt := entryEvent()
	evt.Kind = models.SignalExit
	assert.Equal(t, "[Strategy Forge] EXIT signal: Momentum-Sentiment Hybrid on AAPL", Subject(evt))
	assert.Contains(t, Body(evt), "Consider closing the position")
}

type stubNotifier struct {
	name  string
	err   error
	calls int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(context.Context, models.SignalEvent) error {
	s.calls++
	return s.err
}

func TestMulti(t *testing.T) {
	primary := &stubNotifier{name: "email"}
	secondary := &stubNotifier{name: "other", err: errors.New("down")}
	m := NewMulti(nil, primary, secondary)

	assert.NoError(t, m.Notify(context.Background(), entryEvent()))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, "email", m.Name())

	primary.err = errors.New("smtp down")
	assert.Error(t, m.Notify(context.Background(), entryEvent()))

	assert.ErrorIs(t, NewMulti(nil).Notify(context.Background(), entryEvent()), ErrNotConfigured)
}
