package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
)

// work runs one job end to end: extraction with retries, then the ingest
// pipeline. Panics are recovered and reported as failures.
func (e *Engine) work(ctx context.Context, j *job) (out *outcome) {
	out = &outcome{job: j}
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.scrape",
		trace.WithAttributes(
			attribute.String("store", j.Store),
			attribute.String("fingerprint", j.Fingerprint),
			attribute.Bool("probe", j.Probe),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			metrics.SchedulerPanicsTotal.Inc()
			e.log.Error("scrape worker panic",
				"store", j.Store,
				"fingerprint", j.Fingerprint,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out.err = fmt.Errorf("worker panic: %v", r)
		}
		if out.err != nil && j.ProductID != "" {
			out.stale = e.recordFailure(ctx, j, out.err)
		}

		result := outcomeLabel(out.err)
		metrics.ScrapeJobsTotal.WithLabelValues(j.Store, result).Inc()
		metrics.ScrapeDuration.WithLabelValues(j.Store).Observe(time.Since(start).Seconds())
		span.SetAttributes(
			attribute.Int("attempts", j.Attempt),
			attribute.Int("observations", out.observations),
		)
		if out.err != nil {
			span.SetStatus(codes.Error, out.err.Error())
			if !errors.Is(out.err, context.Canceled) {
				e.log.Warn("scrape failed",
					"store", j.Store,
					"fingerprint", j.Fingerprint,
					"attempts", j.Attempt,
					"error", out.err,
				)
			}
			return
		}
		e.log.Debug("scrape complete",
			"store", j.Store,
			"fingerprint", j.Fingerprint,
			"observations", out.observations,
			"duration", time.Since(start),
		)
	}()

	ex, ok := e.extractors.Get(j.Store)
	if !ok {
		out.err = fmt.Errorf("%w: %s", ErrUnknownStore, j.Store)
		return out
	}

	res, err := e.extract(ctx, ex, j)
	if err != nil {
		out.err = err
		return out
	}
	out.observations, out.err = e.ingest(ctx, j, res)
	return out
}

// extract runs the extractor with bounded retries for retryable failures.
// Probe jobs check the store first when the extractor supports it. The job
// timeout covers the probe, every attempt and the waits between them.
func (e *Engine) extract(ctx context.Context, ex extract.Extractor, j *job) (*extract.Result, error) {
	jctx, cancel := context.WithTimeout(ctx, e.cfg.JobTimeout)
	defer cancel()

	res, err := e.attempt(jctx, ex, j)
	if err != nil && ctx.Err() == nil && errors.Is(jctx.Err(), context.DeadlineExceeded) &&
		extract.Retryable(err) && !errors.Is(err, extract.ErrTimeout) {
		err = fmt.Errorf("%w: %s did not finish within %s: %w", extract.ErrTimeout, j.Store, e.cfg.JobTimeout, err)
	}
	return res, err
}

func (e *Engine) attempt(ctx context.Context, ex extract.Extractor, j *job) (*extract.Result, error) {
	if p, ok := ex.(extract.Prober); ok && j.Probe {
		err := e.withDeadline(ctx, j.Store, func(ctx context.Context) error { return p.Probe(ctx) })
		if err != nil {
			return nil, fmt.Errorf("probing %s: %w", j.Store, err)
		}
	}

	var res *extract.Result
	op := func() error {
		j.Attempt++
		var r *extract.Result
		err := e.withDeadline(ctx, j.Store, func(ctx context.Context) error {
			var err error
			r, err = ex.Extract(ctx, j.target, e.cfg.MaxResults)
			return err
		})
		if err != nil {
			if !extract.Retryable(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		res = r
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = e.cfg.RetryInitialInterval
	eb.MaxInterval = e.cfg.RetryMaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(e.cfg.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		e.log.Info("retrying extraction",
			"store", j.Store,
			"fingerprint", j.Fingerprint,
			"attempt", j.Attempt,
			"retry_in", wait,
			"error", err,
		)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// withDeadline runs fn until it returns or ctx ends. fn runs on its own
// goroutine so an extractor that ignores ctx cannot hold the worker past the
// job deadline; it is expected to release its session when it does return.
func (e *Engine) withDeadline(ctx context.Context, storeName string, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				metrics.SchedulerPanicsTotal.Inc()
				done <- fmt.Errorf("extractor panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, extract.ErrTimeout) {
			err = fmt.Errorf("%w: %s: %w", extract.ErrTimeout, storeName, err)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s did not respond within %s", extract.ErrTimeout, storeName, e.cfg.JobTimeout)
		}
		return ctx.Err()
	}
}

func outcomeLabel(err error) string {
	var pe *extract.ParseError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, extract.ErrTimeout):
		return "timeout"
	case errors.Is(err, extract.ErrBlocked):
		return "blocked"
	case errors.Is(err, extract.ErrNotFound):
		return "not_found"
	case errors.As(err, &pe):
		return "parse_error"
	default:
		return "error"
	}
}
