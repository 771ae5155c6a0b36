package tracker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/service"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/utils/semaphore"
)

type CompletionSource interface {
	Completions(ctx context.Context) ([]CompletionEvent, error)
}

// Agent polls the tracker and pushes each completion event through the
// award service on a bounded worker pool. Duplicate deliveries die on the
// sourceRef uniqueness constraint, so the poll loop needs no own
// bookkeeping of what it has already seen.
type Agent struct {
	source       CompletionSource
	awards       *service.AwardService
	log          *slog.Logger
	pollInterval time.Duration
}

func New(source CompletionSource, awards *service.AwardService,
	pollInterval time.Duration, log *slog.Logger,
) *Agent {
	return &Agent{
		source:       source,
		awards:       awards,
		log:          log,
		pollInterval: pollInterval,
	}
}

func (a *Agent) Run(ctx context.Context) {
	jobs := make(chan CompletionEvent)

	wg := &sync.WaitGroup{}
	sema := semaphore.New(model.DefaultMaxRequestCount)
	workerCount := runtime.NumCPU() * model.DefaultWorkerCountMultiplier
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go a.worker(ctx, wg, sema, jobs)
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			a.poll(ctx, jobs)
		}
	}
}

func (a *Agent) poll(ctx context.Context, jobs chan<- CompletionEvent) {
	events, err := a.source.Completions(ctx)
	if err != nil {
		var tmrErr *serviceerrs.TooManyRequestsError
		switch {
		case errors.Is(err, serviceerrs.ErrNoContent):
			return
		case errors.As(err, &tmrErr):
			a.log.LogAttrs(ctx,
				slog.LevelWarn,
				"tracker rate limit hit, backing off",
				slog.Duration("retry_after", tmrErr.RetryAfter),
			)
			a.sleep(ctx, tmrErr.RetryAfter)
			return
		default:
			a.log.LogAttrs(ctx,
				slog.LevelError,
				"failed to poll the tracker",
				slog.Any(model.KeyLoggerError, err),
			)
			return
		}
	}

	for _, event := range events {
		select {
		case <-ctx.Done():
			return
		case jobs <- event:
		}
	}
}

func (a *Agent) worker(ctx context.Context, wg *sync.WaitGroup,
	sema *semaphore.Semaphore, jobs <-chan CompletionEvent,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-jobs:
			if !ok {
				return
			}
			if err := sema.AcquireWithTimeout(model.DefaultTimeout); err != nil {
				a.log.LogAttrs(ctx,
					slog.LevelWarn,
					"award worker starved, requeueing on next poll",
					slog.String("task_id", event.Task.ID),
				)
				continue
			}

			_, err := a.awards.HandleCompletion(ctx, event.UserID, &event.Task)
			sema.Release()
			if err != nil && !errors.Is(err, serviceerrs.ErrConflict) {
				a.log.LogAttrs(ctx,
					slog.LevelError,
					"failed to award completion",
					slog.String("task_id", event.Task.ID),
					slog.Any(model.KeyLoggerError, err),
				)
			}
		}
	}
}

func (a *Agent) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
