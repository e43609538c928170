// Package controller drives the parser/interpreter/planner pipeline
// from a cooperative tick, honoring user commands (start/feed-hold/
// resume/cancel/reset) and executor back-pressure (spec §4.5, grounded
// on original_source controller.py's CNCController and cnc_mode.py's
// command registration).
package controller

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/chrisns/cnc-motion-core/internal/cncerrors"
	"github.com/chrisns/cnc-motion-core/internal/executor"
	"github.com/chrisns/cnc-motion-core/internal/gcodeparse"
	"github.com/chrisns/cnc-motion-core/internal/interpreter"
	"github.com/chrisns/cnc-motion-core/internal/jobid"
	"github.com/chrisns/cnc-motion-core/internal/linesource"
	"github.com/chrisns/cnc-motion-core/internal/modal"
	"github.com/chrisns/cnc-motion-core/internal/planner"
	"github.com/chrisns/cnc-motion-core/internal/primitive"
	"github.com/chrisns/cnc-motion-core/internal/softlimits"
)

// State is the controller's run state. Draining is a sub-state of
// Running entered once the line source is exhausted but the executor
// still has queued motion time (original_source controller.py's
// ControllerState with Draining split out, spec §4.5).
type State int

const (
	Idle State = iota
	Running
	Hold
	Draining
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Hold:
		return "hold"
	case Draining:
		return "draining"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Config bundles the controller's own tuning knobs, separate from the
// planner's (spec §4.4/§4.5/§6).
type Config struct {
	Planner           planner.Config
	MaxBufferedTime   float64 // seconds; refill pauses at or above this executor buffer
	ProgressEveryMM   float64 // distance between progress log lines; spec default 10mm
	MaxLinesPerTick   int     // refill budget consumed per Pump call
	ArcToleranceMM    float64 // 0 keeps modal.New()'s default
	MaxSegmentTimeSec float64 // 0 keeps modal.New()'s default
}

// Controller owns the modal state, interpreter, planner, and executor
// for a single job and advances them one Pump call at a time. It is
// single-threaded and cooperative: no internal locking, no goroutines
// of its own (spec §5's concurrency model).
type Controller struct {
	cfg    Config
	source linesource.Source
	state  *modal.State
	interp *interpreter.Interpreter
	plan   *planner.Planner
	exec   executor.Interface
	clk    clock.Clock
	log    *zap.Logger
	job    jobid.ID

	run        State
	sourceOpen bool
	eof        bool

	// ready holds primitives the planner has already released but that
	// have not yet been dispatched to the executor. Refill (read/parse/
	// interpret/plan.Push) keeps appending to it even while Hold,
	// matching original_source controller.py's run_stream, whose
	// lookahead-fill loop is never gated on run state — only the
	// execute step is. Hold therefore only withholds dispatch, never
	// refill.
	ready []primitive.PlannedPrimitive

	distanceDone         float64
	lastReportedDistance float64
	linesConsumed        int
	startedAt            time.Time
}

// New builds an idle Controller wired to a fresh modal state and
// planner. limits may be nil (no soft-limit checking).
func New(cfg Config, source linesource.Source, limits *softlimits.Limits, exec executor.Interface, clk clock.Clock, log *zap.Logger) *Controller {
	st := modal.New()
	if cfg.Planner.MaxVelocity > 0 {
		st.RapidFeedrate = cfg.Planner.MaxVelocity * 60.0
	}
	if cfg.ArcToleranceMM > 0 {
		st.ArcToleranceMM = cfg.ArcToleranceMM
	}
	if cfg.MaxSegmentTimeSec > 0 {
		st.MaxSegmentTime = cfg.MaxSegmentTimeSec
	}

	return &Controller{
		cfg:    cfg,
		source: source,
		state:  st,
		interp: interpreter.New(st, limits),
		plan:   planner.New(cfg.Planner),
		exec:   exec,
		clk:    clk,
		log:    log,
		job:    jobid.New(),
		run:    Idle,
	}
}

// JobID returns the correlation id attached to every log line for this
// job's current run.
func (c *Controller) JobID() jobid.ID { return c.job }

// State reports the current run state.
func (c *Controller) State() State { return c.run }

// Progress reports lines consumed and cumulative distance executed so
// far in the current job, for status reporting (internal/statusd).
func (c *Controller) Progress() (lines int, distanceMM float64) {
	return c.linesConsumed, c.distanceDone
}

// Start transitions Idle -> Running, opening the line source on first
// use. Only valid from Idle.
func (c *Controller) Start() error {
	if c.run != Idle {
		return cncerrors.NewStateError("CNC_START", c.run.String())
	}
	if !c.sourceOpen {
		if err := c.source.Open(); err != nil {
			return cncerrors.NewExecutorError(err)
		}
		c.sourceOpen = true
	}
	c.startedAt = c.clk.Now()
	c.run = Running
	c.log.Info("job started", zap.String("job_id", c.job.String()))
	return nil
}

// FeedHold pauses dispatch to the executor (Running or Draining ->
// Hold); Pump keeps reading and planning lines while held. Already
// queued motion in the executor continues to play out.
func (c *Controller) FeedHold() error {
	if c.run != Running && c.run != Draining {
		return cncerrors.NewStateError("CNC_FEED_HOLD", c.run.String())
	}
	c.run = Hold
	c.log.Info("feed hold", zap.String("job_id", c.job.String()))
	return nil
}

// Resume continues dispatch after a hold (Hold -> Running, or Hold ->
// Draining once the line source is exhausted).
func (c *Controller) Resume() error {
	if c.run != Hold {
		return cncerrors.NewStateError("CNC_RESUME", c.run.String())
	}
	if c.eof {
		c.run = Draining
	} else {
		c.run = Running
	}
	c.log.Info("resumed", zap.String("job_id", c.job.String()))
	return nil
}

// Cancel aborts the job immediately from any state but Idle and
// Cancelled. No further primitives are planned or executed; whatever
// the executor already has queued is its own concern.
func (c *Controller) Cancel() error {
	if c.run == Idle || c.run == Cancelled {
		return cncerrors.NewStateError("CNC_CANCEL", c.run.String())
	}
	c.run = Cancelled
	c.log.Info("cancelled", zap.String("job_id", c.job.String()))
	return nil
}

// Reset returns a Cancelled or Idle-drained controller to Idle, closing
// the line source and resetting modal and planner state for a new job.
// Resetting mints a fresh job id.
func (c *Controller) Reset() error {
	if c.run != Cancelled && c.run != Idle {
		return cncerrors.NewStateError("CNC_RESET", c.run.String())
	}
	if c.sourceOpen {
		_ = c.source.Close()
		c.sourceOpen = false
	}
	c.state.Reset()
	c.plan.Reset()
	c.eof = false
	c.ready = nil
	c.distanceDone = 0
	c.lastReportedDistance = 0
	c.linesConsumed = 0
	c.job = jobid.New()
	c.run = Idle
	return nil
}

// Pump advances the pipeline by at most cfg.MaxLinesPerTick source
// lines, subject to executor back-pressure, and returns true once the
// job has fully drained to completion. Pump never blocks: it is meant
// to be called from exactly one external cooperative timer tick
// goroutine — Controller has no internal synchronization (spec §5).
//
// Refill (read/parse/interpret/plan.Push) runs whenever the job is not
// Idle or Cancelled, Hold included — only the executor dispatch step is
// gated on run state (spec.md §4.5 step 2 vs step 3; original_source
// controller.py's run_stream fills its lookahead buffer unconditionally
// and only skips `step()` while not RUNNING).
func (c *Controller) Pump() (done bool, err error) {
	switch c.run {
	case Idle, Cancelled:
		return c.run == Idle, nil
	}

	budget := c.cfg.MaxLinesPerTick
	if budget <= 0 {
		budget = 1
	}

	for !c.eof && budget > 0 {
		if c.bufferedTooFull() {
			break
		}

		line, ok, rerr := c.source.NextLine()
		if rerr != nil {
			return false, cncerrors.NewExecutorError(rerr)
		}
		if !ok {
			c.eof = true
			c.ready = append(c.ready, c.plan.Finish()...)
			break
		}

		c.linesConsumed++
		budget--

		rec := gcodeparse.Parse(line)
		if rec.Empty() {
			continue
		}

		prims, ierr := c.interp.Interpret(c.source.LineNumber(), rec)
		if ierr != nil {
			return false, ierr
		}

		for _, p := range prims {
			c.ready = append(c.ready, c.plan.Push(p)...)
		}
	}

	if c.run == Hold {
		return false, nil
	}

	if len(c.ready) > 0 {
		pending := c.ready
		c.ready = nil
		if err := c.executePlanned(pending); err != nil {
			return false, err
		}
	}

	if c.eof {
		if c.run == Running {
			c.run = Draining
		}
		if c.queueDrained() {
			if err := c.exec.Flush(); err != nil {
				return false, cncerrors.NewExecutorError(err)
			}
			c.run = Idle
			c.log.Info("job complete",
				zap.String("job_id", c.job.String()),
				zap.Int("lines", c.linesConsumed),
				zap.Float64("distance_mm", c.distanceDone),
			)
			return true, nil
		}
	}

	return false, nil
}

// executePlanned sends each planned primitive to the executor in order,
// tracking distance for progress reporting every cfg.ProgressEveryMM.
func (c *Controller) executePlanned(planned []primitive.PlannedPrimitive) error {
	for _, p := range planned {
		if err := c.exec.Execute(p); err != nil {
			return cncerrors.NewExecutorError(err)
		}

		c.distanceDone += p.Primitive.Length()
		if c.cfg.ProgressEveryMM > 0 && c.distanceDone-c.lastReportedDistance >= c.cfg.ProgressEveryMM {
			c.lastReportedDistance = c.distanceDone
			c.log.Info("progress",
				zap.String("job_id", c.job.String()),
				zap.Float64("distance_mm", c.distanceDone),
				zap.Int("lines", c.linesConsumed),
				zap.Duration("elapsed", c.clk.Now().Sub(c.startedAt)),
			)
		}
	}
	return nil
}

// bufferedTooFull reports whether the executor, if it exposes
// BufferTimer, already has at least cfg.MaxBufferedTime seconds of
// motion queued — the refill back-pressure signal (spec §4.5).
func (c *Controller) bufferedTooFull() bool {
	bt, ok := c.exec.(executor.BufferTimer)
	if !ok || c.cfg.MaxBufferedTime <= 0 {
		return false
	}
	return bt.BufferTime(c.clk.Now()) >= c.cfg.MaxBufferedTime
}

// queueDrained reports whether the executor has no meaningfully
// queued motion left, used to decide when a Draining job is complete.
func (c *Controller) queueDrained() bool {
	bt, ok := c.exec.(executor.BufferTimer)
	if !ok {
		return true
	}
	return bt.BufferTime(c.clk.Now()) <= 0
}
