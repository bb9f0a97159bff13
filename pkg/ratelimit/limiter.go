// Package ratelimit implements the fixed request throttle for the Portal da
// Transparência API. The API publishes requests-per-minute ceilings that vary
// by time of day, plus a stricter ceiling for restricted endpoints; each
// request is preceded by a pause of 60s divided by the ceiling in force.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for throttle behavior.
var (
	throttleWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transparencia_throttle_waits_total",
		Help: "Total throttle waits by tier",
	}, []string{"tier"})

	throttleDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transparencia_throttle_delay_seconds",
		Help:    "Computed per-request throttle delay in seconds",
		Buckets: []float64{0.05, 0.1, 0.15, 0.2, 0.3, 0.5},
	})
)

// Requests-per-minute ceilings published by the Portal da Transparência.
const (
	// LimitRestricted applies to restricted endpoints regardless of hour.
	LimitRestricted = 180

	// LimitOffPeak applies between 00:00 and 05:59 local time.
	LimitOffPeak = 700

	// LimitStandard applies at every other hour.
	LimitStandard = 400
)

// Delay returns the pause applied before a single request: 60 seconds
// divided by the requests-per-minute ceiling in force for the given hour.
func Delay(hour int, restricted bool) time.Duration {
	return time.Minute / time.Duration(limitFor(hour, restricted))
}

func limitFor(hour int, restricted bool) int {
	switch {
	case restricted:
		return LimitRestricted
	case hour >= 0 && hour < 6:
		return LimitOffPeak
	default:
		return LimitStandard
	}
}

func tierFor(hour int, restricted bool) string {
	switch {
	case restricted:
		return "restricted"
	case hour >= 0 && hour < 6:
		return "off_peak"
	default:
		return "standard"
	}
}

// Limiter spaces requests according to the hour-of-day ceiling.
// Burst is 1 and the initial token is drained, so the first request waits
// the full delay like every subsequent one.
type Limiter struct {
	limiter *rate.Limiter
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a Limiter using the wall clock.
func New(logger zerolog.Logger) *Limiter {
	return NewWithClock(logger, time.Now)
}

// NewWithClock creates a Limiter with an injected clock. The clock only
// selects the hour-of-day ceiling; the token bucket itself runs on wall
// time (rate.Limiter.Wait does), so the initial drain must be stamped
// with wall time too or a pinned past clock would leave the token
// regenerated and the first call would not wait.
func NewWithClock(logger zerolog.Logger, now func() time.Time) *Limiter {
	l := rate.NewLimiter(rate.Every(Delay(now().Hour(), false)), 1)
	l.AllowN(time.Now(), 1)
	return &Limiter{
		limiter: l,
		now:     now,
		logger:  logger,
	}
}

// Wait blocks for the delay in force for the current hour, or until ctx is
// cancelled. The ceiling is re-evaluated on every call: the delay changes
// when the clock crosses the 06:00 boundary mid-run or when the caller
// marks the request restricted.
func (l *Limiter) Wait(ctx context.Context, restricted bool) error {
	hour := l.now().Hour()
	delay := Delay(hour, restricted)
	l.limiter.SetLimit(rate.Every(delay))

	throttleDelaySeconds.Observe(delay.Seconds())
	throttleWaitsTotal.WithLabelValues(tierFor(hour, restricted)).Inc()

	l.logger.Debug().
		Int("hour", hour).
		Bool("restricted", restricted).
		Dur("delay", delay).
		Msg("Throttling request")

	return l.limiter.Wait(ctx)
}
