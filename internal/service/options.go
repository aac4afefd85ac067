package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHoldTTL      = 15 * time.Minute
	minHoldTTL          = time.Minute
	maxHoldTTL          = 24 * time.Hour
	defaultStoreTimeout = 5 * time.Second
	defaultSweepBatch   = 500
)

// options are shared by every service in this package.
type options struct {
	log          *zap.Logger
	now          func() time.Time
	holdTTL      time.Duration
	storeTimeout time.Duration
	sweepBatch   int
	publisher    EventPublisher
	refund       RefundPolicy
}

func defaultOptions() options {
	return options{
		log:          zap.NewNop(),
		now:          func() time.Time { return time.Now().UTC() },
		holdTTL:      defaultHoldTTL,
		storeTimeout: defaultStoreTimeout,
		sweepBatch:   defaultSweepBatch,
		publisher:    nopPublisher{},
		refund:       DefaultRefundPolicy(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a service.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the time source.  Returned times are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = func() time.Time { return now().UTC() }
		}
	}
}

// WithHoldTTL overrides the default lifetime of new holds.
func WithHoldTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= minHoldTTL && d <= maxHoldTTL {
			o.holdTTL = d
		}
	}
}

// WithStoreTimeout bounds every store interaction.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

// WithSweepBatch sets how many expired holds the sweeper loads at once.
func WithSweepBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sweepBatch = n
		}
	}
}

// WithPublisher sets the booking event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithRefundPolicy sets the cancellation refund tiers.
func WithRefundPolicy(p RefundPolicy) Option {
	return func(o *options) {
		if len(p) > 0 {
			o.refund = p
		}
	}
}

func (o options) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.storeTimeout)
}
