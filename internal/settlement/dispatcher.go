package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

var ErrDispatcherStopped = errors.New("settlement dispatcher stopped")

type settler interface {
	SettleTransfer(ctx context.Context, transferID uuid.UUID) error
}

// Dispatcher runs settlement tasks on a fixed pool of workers. A task is only
// the transfer id; workers reload the record themselves.
type Dispatcher struct {
	settler settler
	workers int
	logger  *slog.Logger

	tasks   chan uuid.UUID
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewDispatcher(s settler, workers, queueSize int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		settler: s,
		workers: workers,
		logger:  logger,
		tasks:   make(chan uuid.UUID, queueSize),
	}
}

// Start launches the workers. Their contexts derive from ctx, never from the
// request that submitted the task.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	for i := range d.workers {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	d.logger.Info("settlement dispatcher started", "workers", d.workers, "queue_size", cap(d.tasks))
}

// Submit enqueues a transfer without blocking.
func (d *Dispatcher) Submit(transferID uuid.UUID) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return fmt.Errorf("Submit: %w", ErrDispatcherStopped)
	}

	select {
	case d.tasks <- transferID:
		return nil
	default:
		return fmt.Errorf("Submit: transfer %s: %w", transferID, domain.ErrQueueFull)
	}
}

// Stop drains queued tasks. If ctx expires first, in-flight settlements are
// cancelled and Stop waits for the workers to return.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.tasks)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("settlement dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.logger.Warn("settlement dispatcher stopped before queue drained")
		return fmt.Errorf("Stop: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	defer d.wg.Done()

	log := d.logger.With("worker", worker)
	for transferID := range d.tasks {
		if ctx.Err() != nil {
			log.Warn("settlement task dropped, transfer left pending", "transfer_id", transferID)
			continue
		}
		d.run(logging.WithLogger(ctx, log.With("transfer_id", transferID)), transferID)
	}
}

func (d *Dispatcher) run(ctx context.Context, transferID uuid.UUID) {
	log := logging.FromContext(ctx)
	defer func() {
		if err := recover(); err != nil {
			log.Error("panic in settlement task", "error", err, "stack", string(debug.Stack()))
		}
	}()

	if err := d.settler.SettleTransfer(ctx, transferID); err != nil {
		log.Error("settlement task failed", "error", err)
	}
}
