package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/infra/metrics"
	red "mealplan-subscription/internal/infra/redis"
)

// RenewalProcessor is the slice of the subscription use case the worker
// needs: one scan-and-charge pass over everything due.
type RenewalProcessor interface {
	ProcessRenewals(ctx context.Context) (renewed, lapsed int, err error)
}

// RenewalWorker drives the renewal cycle on a fixed interval. An optional
// distributed lock keeps cycles from overlapping across instances; when no
// locker is configured the worker assumes it is the only one running.
type RenewalWorker struct {
	interval time.Duration
	proc     RenewalProcessor
	locker   red.Locker
	log      *zerolog.Logger
}

const renewalLockKey = "renewal:cycle:lock"

func NewRenewalWorker(interval time.Duration, proc RenewalProcessor, locker red.Locker, logger *zerolog.Logger) *RenewalWorker {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	compLog := logger.With().Str("component", "RenewalWorker").Logger()
	return &RenewalWorker{
		interval: interval,
		proc:     proc,
		locker:   locker,
		log:      &compLog,
	}
}

func (w *RenewalWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting renewal worker")
	// Run once on startup, then on every tick
	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping renewal worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *RenewalWorker) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, renewalLockKey, w.interval/2)
		if err != nil {
			if errors.Is(err, domain.ErrLockNotAcquired) {
				w.log.Debug().Msg("renewal cycle already running elsewhere")
				return
			}
			// Lock backend unreachable; proceed rather than stall renewals.
			w.log.Warn().Err(err).Msg("renewal lock unavailable, running unlocked")
		} else {
			defer func() {
				if err := w.locker.Unlock(ctx, renewalLockKey, token); err != nil {
					w.log.Warn().Err(err).Msg("renewal lock release failed")
				}
			}()
		}
	}

	start := time.Now()
	renewed, lapsed, err := w.proc.ProcessRenewals(ctx)
	metrics.ObserveRenewalCycle(time.Since(start).Seconds())
	if err != nil {
		w.log.Error().Err(err).Msg("renewal cycle error")
		return
	}
	if renewed > 0 || lapsed > 0 {
		w.log.Info().Int("renewed", renewed).Int("lapsed", lapsed).Msg("renewal cycle finished")
	}
}
