package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/khiva-labs/hotelier/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Metrics holds the service's instruments
type Metrics struct {
	paymentsCaptured *telemetry.Counter
	paymentsRemoved  *telemetry.Counter
	amountCaptured   *telemetry.Counter
	webhookRequests  *telemetry.Counter
	webhookDuration  *telemetry.Histogram
}

// New registers the instruments
func New() (*Metrics, error) {
	paymentsCaptured, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_captured_total",
		Description: "Payments recorded against bookings",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	paymentsRemoved, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_removed_total",
		Description: "Payments deleted and reversed",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	amountCaptured, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_amount_minor_total",
		Description: "Total captured amount in minor currency units",
		Unit:        "1",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	webhookRequests, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gateway_webhook_requests_total",
		Description: "Webhook requests by gateway and outcome",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	webhookDuration, err := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "gateway_webhook_duration_seconds",
		Description: "Webhook handling latency",
		Unit:        "s",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}

	return &Metrics{
		paymentsCaptured: paymentsCaptured,
		paymentsRemoved:  paymentsRemoved,
		amountCaptured:   amountCaptured,
		webhookRequests:  webhookRequests,
		webhookDuration:  webhookDuration,
	}, nil
}

// PaymentCaptured records one captured payment. Safe on a nil receiver so
// callers do not guard every call site.
func (m *Metrics) PaymentCaptured(ctx context.Context, method string, amount int64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("method", method)}
	m.paymentsCaptured.Inc(ctx, attrs...)
	m.amountCaptured.Add(ctx, amount, attrs...)
}

// PaymentRemoved records one removed payment
func (m *Metrics) PaymentRemoved(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentsRemoved.Inc(ctx)
}

// WebhookHandled records one webhook request
func (m *Metrics) WebhookHandled(ctx context.Context, gateway string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("gateway", gateway),
		attribute.Bool("ok", ok),
	}
	m.webhookRequests.Inc(ctx, attrs...)
	m.webhookDuration.Record(ctx, seconds, attrs...)
}

// Middleware instruments webhook routes with request count and latency
func (m *Metrics) Middleware(gateway string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.WebhookHandled(c.Request.Context(), gateway,
			c.Writer.Status() < 500, time.Since(start).Seconds())
	}
}
