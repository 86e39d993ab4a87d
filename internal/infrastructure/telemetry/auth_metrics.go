package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrResult    = attribute.Key("result")
	AttrOperation = attribute.Key("operation")
)

// Outcomes recorded on auth counters
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// AuthMetrics counts auth lifecycle events. A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	registrations *Counter
	logins        *Counter
	refreshes     *Counter
	reuse         *Counter
	logouts       *Counter
	duration      *Histogram
}

// NewAuthMetrics registers the auth instruments on meter
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	var (
		m   AuthMetrics
		err error
	)
	if m.registrations, err = NewCounter(meter, "auth.registrations", "User registrations by result", "{registration}"); err != nil {
		return nil, err
	}
	if m.logins, err = NewCounter(meter, "auth.logins", "Login attempts by result", "{attempt}"); err != nil {
		return nil, err
	}
	if m.refreshes, err = NewCounter(meter, "auth.refreshes", "Token refreshes by result", "{refresh}"); err != nil {
		return nil, err
	}
	if m.reuse, err = NewCounter(meter, "auth.refresh_token.reuse_detected", "Revoked refresh tokens presented again", "{event}"); err != nil {
		return nil, err
	}
	if m.logouts, err = NewCounter(meter, "auth.logouts", "Logouts", "{logout}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, "auth.operation.duration", "Auth operation latency", "s", AuthDurationBuckets...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRegistration counts a registration attempt
func (m *AuthMetrics) RecordRegistration(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.registrations.Inc(ctx, AttrResult.String(result))
}

// RecordLogin counts a login attempt
func (m *AuthMetrics) RecordLogin(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.logins.Inc(ctx, AttrResult.String(result))
}

// RecordRefresh counts a refresh attempt
func (m *AuthMetrics) RecordRefresh(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.refreshes.Inc(ctx, AttrResult.String(result))
}

// RecordReuseDetected counts a refresh token replay
func (m *AuthMetrics) RecordReuseDetected(ctx context.Context) {
	if m == nil {
		return
	}
	m.reuse.Inc(ctx)
}

// RecordLogout counts a logout
func (m *AuthMetrics) RecordLogout(ctx context.Context) {
	if m == nil {
		return
	}
	m.logouts.Inc(ctx)
}

// RecordDuration records how long operation took
func (m *AuthMetrics) RecordDuration(ctx context.Context, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.RecordDuration(ctx, d, AttrOperation.String(operation))
}
