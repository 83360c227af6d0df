// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-purchasing"
)

const instrumentationName = "github.com/go-a2a/a2a-purchasing/push"

// Header names used on delivery requests.
const (
	// NotificationTokenHeader carries the subscriber token from the push configuration.
	NotificationTokenHeader = "X-A2A-Notification-Token"
	validationTokenParam    = "validationToken"
)

// SenderOption configures a [Sender].
type SenderOption func(*Sender)

// WithHTTPClient sets the client used for challenges and deliveries.
func WithHTTPClient(hc *http.Client) SenderOption {
	return func(s *Sender) {
		s.hc = hc
	}
}

// WithLogger sets the logger of the sender.
func WithLogger(logger *slog.Logger) SenderOption {
	return func(s *Sender) {
		s.logger = logger
	}
}

// WithDeliveryTimeout bounds each asynchronous delivery started by [Sender.Dispatch].
func WithDeliveryTimeout(d time.Duration) SenderOption {
	return func(s *Sender) {
		s.timeout = d
	}
}

// Sender challenges subscriber URLs and delivers signed task notifications.
type Sender struct {
	keys    *KeyManager
	hc      *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	queues map[string][]delivery // pending deliveries per task id; present while a worker drains it
	wg     sync.WaitGroup
}

type delivery struct {
	task *a2a.Task
	cfg  a2a.PushNotificationConfig
}

// NewSender returns a [Sender] signing with keys.
func NewSender(keys *KeyManager, opts ...SenderOption) *Sender {
	s := &Sender{
		keys:    keys,
		hc:      &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
		tracer:  otel.GetTracerProvider().Tracer(instrumentationName),
		timeout: 30 * time.Second,
		now:     time.Now,
		queues:  make(map[string][]delivery),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyURL reports whether target answers the ownership challenge: a GET
// with a fresh validationToken query parameter must return 2xx with the
// token as the body.
func (s *Sender) VerifyURL(ctx context.Context, target string) bool {
	ctx, span := s.tracer.Start(ctx, "a2a.push.verify_url", trace.WithAttributes(attribute.String("url.full", target)))
	defer span.End()

	u, err := url.Parse(target)
	if err != nil {
		s.logger.WarnContext(ctx, "push notification URL is malformed", "url", target, "error", err)
		return false
	}
	token := uuid.NewString()
	q := u.Query()
	q.Set(validationTokenParam, token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		s.logger.WarnContext(ctx, "build verification request", "url", target, "error", err)
		return false
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "push notification URL verification failed", "url", target, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.WarnContext(ctx, "push notification URL rejected the challenge", "url", target, "status", resp.StatusCode)
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return false
	}
	if string(body) != token {
		s.logger.WarnContext(ctx, "push notification URL echoed the wrong token", "url", target)
		return false
	}
	return true
}

// Send posts the task to cfg.URL with a signed Authorization header.
func (s *Sender) Send(ctx context.Context, cfg a2a.PushNotificationConfig, task *a2a.Task) error {
	ctx, span := s.tracer.Start(ctx, "a2a.push.send", trace.WithAttributes(
		attribute.String("a2a.task_id", task.ID),
		attribute.String("url.full", cfg.URL),
	))
	defer span.End()

	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	token, err := s.keys.Sign(body, s.now())
	if err != nil {
		return fmt.Errorf("sign notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if cfg.Token != "" {
		req.Header.Set(NotificationTokenHeader, cfg.Token)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("deliver notification: subscriber answered %s", resp.Status)
	}
	return nil
}

// Dispatch sends the task in the background. Deliveries for one task id
// are made one at a time in dispatch order, so a subscriber never sees an
// older state after a newer one. Each delivery is detached from any request
// context and bounded by the delivery timeout; failures are logged only.
func (s *Sender) Dispatch(task *a2a.Task, cfg a2a.PushNotificationConfig) {
	d := delivery{task: task.Clone(), cfg: cfg}

	s.mu.Lock()
	defer s.mu.Unlock()
	q, draining := s.queues[task.ID]
	s.queues[task.ID] = append(q, d)
	if draining {
		return
	}
	s.wg.Add(1)
	go s.drain(task.ID)
}

// drain delivers the queued notifications of taskID until none are left.
func (s *Sender) drain(taskID string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		q := s.queues[taskID]
		if len(q) == 0 {
			delete(s.queues, taskID)
			s.mu.Unlock()
			return
		}
		d := q[0]
		s.queues[taskID] = q[1:]
		s.mu.Unlock()

		s.deliver(d)
	}
}

func (s *Sender) deliver(d delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.Send(ctx, d.cfg, d.task); err != nil {
		s.logger.ErrorContext(ctx, "push notification failed", "task_id", d.task.ID, "url", d.cfg.URL, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "push notification delivered", "task_id", d.task.ID, "state", d.task.Status.State)
}

// Close waits for in-flight deliveries or until ctx is done.
func (s *Sender) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
