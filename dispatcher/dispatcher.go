package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

// StatusReporter delivers a terminal Outcome back to the manager. It is
// implemented by tasktracker.Reporter; defined here so this package never
// imports tasktracker.
type StatusReporter interface {
	Report(ctx context.Context, req upgrade.Request, outcome upgrade.Outcome) error
}

// Runner executes the protocol for one request. upgrade.Orchestrator
// satisfies this directly.
type Runner interface {
	Run(ctx context.Context, req upgrade.Request) upgrade.Outcome
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides the default slog.Default() sink.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithPopTimeout overrides how long an idle worker waits for a follow-up
// request before releasing its slot (spec.md §4.6's worker-recycling wait).
func WithPopTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.popTimeout = d }
}

// Dispatcher owns the queue, the pool, and the in-flight worker goroutines
// that drain it. One Dispatcher corresponds to one running
// upgrade-dispatcherd process (spec.md §4.6).
type Dispatcher struct {
	queue      *Queue
	pool       *Pool
	runner     Runner
	reporter   StatusReporter
	popTimeout time.Duration
	logger     *slog.Logger

	eg *errgroup.Group
}

// New builds a Dispatcher. maxThreads and queueCapacity come from
// upgrade.Config and the manager's tuning; popTimeout defaults to one
// second if not overridden via WithPopTimeout.
func New(maxThreads, queueCapacity int, runner Runner, reporter StatusReporter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:      NewQueue(queueCapacity),
		pool:       NewPool(maxThreads),
		runner:     runner,
		reporter:   reporter,
		popTimeout: time.Second,
		logger:     slog.Default(),
		eg:         &errgroup.Group{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue submits req for processing, blocking if the queue is full.
func (d *Dispatcher) Enqueue(ctx context.Context, req upgrade.Request) error {
	return d.queue.Push(ctx, req)
}

// Run drains the queue until ctx is done, admitting one worker goroutine
// per dequeued request and tracking their lifecycles with an errgroup. It
// returns once every already-admitted worker has finished; Run does not
// cancel a worker mid-upgrade (spec.md §4.6: "once admitted, a worker runs
// a request to completion").
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		req, err := d.queue.PopBlocking(ctx)
		if err != nil {
			break
		}

		d.pool.Acquire()
		d.logger.Debug("worker admitted", "agent_id", req.AgentID, "active", d.pool.Active())

		d.eg.Go(func() error {
			d.runWorker(ctx, req)
			return nil
		})
	}
	return d.eg.Wait()
}

// runWorker executes req, reports its outcome, then tries to pick up
// another queued request without releasing its pool slot (spec.md §4.6
// worker lifecycle). shutdownCtx governs only the follow-up PopTimed call,
// never the in-flight upgrade itself: a shutdown in progress must not abort
// a worker partway through the wire protocol.
func (d *Dispatcher) runWorker(shutdownCtx context.Context, first upgrade.Request) {
	req := first
	for {
		outcome := d.runner.Run(context.Background(), req)
		d.report(req, outcome)

		next, ok := d.queue.PopTimed(shutdownCtx, d.popTimeout)
		if !ok {
			d.pool.Release()
			d.logger.Debug("worker idle-timed out, releasing slot", "active", d.pool.Active())
			return
		}
		req = next
	}
}

func (d *Dispatcher) report(req upgrade.Request, outcome upgrade.Outcome) {
	if err := d.reporter.Report(context.Background(), req, outcome); err != nil {
		d.logger.Error("failed to report upgrade outcome",
			"agent_id", req.AgentID, "outcome", outcome.String(), "error", err)
	}
}

// Active reports the dispatcher's current admitted-worker count.
func (d *Dispatcher) Active() int { return d.pool.Active() }

// QueueLen reports the dispatcher's current queue depth.
func (d *Dispatcher) QueueLen() int { return d.queue.Len() }
