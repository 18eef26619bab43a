// Package feed subscribes to a websocket stream of server response envelopes
// and hands each attached route command to the execution engine.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/routewire/routewire/pkg/command"
	"github.com/routewire/routewire/pkg/logger"
	"github.com/routewire/routewire/pkg/response"
)

// Executor runs commands delivered over the feed. Satisfied by engine.Executor.
type Executor interface {
	Execute(ctx context.Context, cmd command.Command) error
	ExecuteVersioned(ctx context.Context, env *command.Versioned) error
}

// Options tunes the reconnect behavior.
type Options struct {
	// ReconnectMin is the initial backoff after a dropped connection.
	ReconnectMin time.Duration
	// ReconnectMax caps the backoff growth.
	ReconnectMax time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReconnectMin <= 0 {
		o.ReconnectMin = 500 * time.Millisecond
	}
	if o.ReconnectMax < o.ReconnectMin {
		o.ReconnectMax = 30 * time.Second
	}
	return o
}

// Subscriber maintains a websocket connection to the command feed.
type Subscriber struct {
	url      string
	executor Executor
	opts     Options
	dialer   *websocket.Dialer
}

// New builds a subscriber for the given feed URL.
func New(url string, executor Executor, opts Options) *Subscriber {
	return &Subscriber{
		url:      url,
		executor: executor,
		opts:     opts.withDefaults(),
		dialer:   websocket.DefaultDialer,
	}
}

// Run connects and processes envelopes until ctx is canceled, reconnecting
// with exponential backoff after any connection failure.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := s.opts.ReconnectMin

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			logger.WarnCF("feed", "Connection failed", map[string]interface{}{
				"url":      s.url,
				"error":    err.Error(),
				"retry_in": backoff.String(),
			})
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, s.opts.ReconnectMax)
			continue
		}

		logger.InfoCF("feed", "Connected", map[string]interface{}{"url": s.url})
		backoff = s.opts.ReconnectMin

		err = s.readLoop(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WarnCF("feed", "Connection lost", map[string]interface{}{
			"url":   s.url,
			"error": err.Error(),
		})
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, s.opts.ReconnectMax)
	}
}

// readLoop drains envelopes from a single connection. Close the connection
// from another goroutine to unblock ReadMessage on cancellation.
func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read feed message: %w", err)
		}
		s.handle(ctx, data)
	}
}

// handle decodes and executes a single envelope. Failures are logged and do
// not tear down the connection.
func (s *Subscriber) handle(ctx context.Context, data []byte) {
	var resp response.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.WarnCF("feed", "Dropping malformed envelope", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if resp.RouteCommand.IsZero() {
		return
	}

	var err error
	if resp.RouteCommand.Versioned != nil {
		err = s.executor.ExecuteVersioned(ctx, resp.RouteCommand.Versioned)
	} else {
		err = s.executor.Execute(ctx, *resp.RouteCommand.Command)
	}
	if err != nil {
		logger.WarnCF("feed", "Command execution failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
