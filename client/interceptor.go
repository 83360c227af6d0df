// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-a2a/a2a-purchasing/auth"
)

// Interceptor defines a middleware function that can intercept and modify requests/responses.
type Interceptor func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error)

// Invoker represents the next handler in the interceptor chain.
type Invoker func(ctx context.Context, req *http.Request) (*http.Response, error)

// chainInterceptors chains multiple interceptors together.
// The first interceptor is the outermost.
func chainInterceptors(interceptors []Interceptor, invoker Invoker) Invoker {
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		next := invoker
		invoker = func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return interceptor(ctx, req, next)
		}
	}
	return invoker
}

// CredentialsInterceptor sets the Authorization header from creds.
func CredentialsInterceptor(creds auth.Credentials) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		creds.Apply(req)
		return invoker(ctx, req)
	}
}

// LoggingInterceptor logs requests and responses.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		start := time.Now()
		resp, err := invoker(ctx, req)
		if err != nil {
			logger.WarnContext(ctx, "request failed", "method", req.Method, "url", req.URL.String(), "error", err)
			return resp, err
		}
		logger.DebugContext(ctx, "request done",
			"method", req.Method,
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"duration", time.Since(start),
		)
		return resp, nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return invoker(ctx, req)
	}
}

// RetryPolicy configures [RetryInterceptor].
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy retries three times with exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2,
}

// RetryInterceptor retries requests that fail at the transport level or with
// a retryable status code. The request body is rewound with GetBody.
func RetryInterceptor(policy RetryPolicy) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		var (
			resp    *http.Response
			lastErr error
		)
		for attempt := range max(policy.MaxAttempts, 1) {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(calculateDelay(policy, attempt-1)):
				}
				if req.GetBody != nil {
					body, err := req.GetBody()
					if err != nil {
						return nil, err
					}
					req.Body = body
				}
			}

			resp, lastErr = invoker(ctx, req)
			if lastErr == nil && !shouldRetry(resp.StatusCode) {
				return resp, nil
			}
			if lastErr == nil && attempt < policy.MaxAttempts-1 {
				resp.Body.Close()
			}
		}
		return resp, lastErr
	}
}

// shouldRetry determines if a response should be retried based on status code.
func shouldRetry(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests
}

// calculateDelay calculates the delay for the next retry attempt.
func calculateDelay(policy RetryPolicy, attempt int) time.Duration {
	return min(time.Duration(float64(policy.InitialDelay)*math.Pow(policy.Multiplier, float64(attempt))), policy.MaxDelay)
}
