// Command cncstream streams a G-code file through the interpreter,
// planner, and an executor, driven by a cooperative tick loop (spec
// §5/§6). Grounded on the teacher's cmd/snapmaker-cnc-finisher/main.go
// run(args)-returns-exitCode pattern, rebuilt on cobra/viper the way
// viamrobotics-rdk's CLI entry points are structured. The tick itself is
// driven by a github.com/go-co-op/gocron/v2 periodic job in singleton
// mode rather than a hand-rolled time.Ticker loop, so a slow tick can
// never overlap the next one. That job's task is the only code in the
// process allowed to touch the *controller.Controller: it drains
// pending statusd.CommandRequests (feed-hold/resume/cancel/reset/
// status, arriving from arbitrary websocket reader goroutines) and
// applies them itself before calling Pump, so Controller is still only
// ever mutated from one goroutine (spec §5's no-locking invariant).
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	realclock "github.com/benbjohnson/clock"
	"github.com/fatih/color"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/chrisns/cnc-motion-core/internal/cncerrors"
	"github.com/chrisns/cnc-motion-core/internal/config"
	"github.com/chrisns/cnc-motion-core/internal/controller"
	"github.com/chrisns/cnc-motion-core/internal/executor"
	"github.com/chrisns/cnc-motion-core/internal/linesource"
	"github.com/chrisns/cnc-motion-core/internal/softlimits"
	"github.com/chrisns/cnc-motion-core/internal/statusd"
	"github.com/chrisns/cnc-motion-core/internal/telemetry"
)

var (
	configPath string
	tickMS     int
	statusAddr string
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := &cobra.Command{
		Use:   "cncstream",
		Short: "Streaming G-code motion pipeline",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to machine config YAML")

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Stream a G-code file to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}
	runCmd.Flags().IntVar(&tickMS, "tick-ms", 20, "cooperative tick interval in milliseconds")
	runCmd.Flags().StringVar(&statusAddr, "status-addr", "", "address to serve websocket status and accept control commands on (e.g. :8088)")

	root.AddCommand(runCmd)
	root.AddCommand(controlCommands()...)

	exitCode := 0
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		color.Red("error: %v", err)
		exitCode = cncerrors.ExitCode(err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func runFile(path string) error {
	log, err := telemetry.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	machine, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	limits := softlimits.New()
	for axis, bound := range machine.SoftLimits {
		limits.WithAxis(axis, bound[0], bound[1])
	}

	plannerCfg := buildPlannerConfig(*machine)

	source := linesource.NewFile(path)
	exec := executor.NewMock(realclock.New())

	ctl := controller.New(controller.Config{
		Planner:           plannerCfg,
		MaxBufferedTime:   machine.MaxBufferedExecutorTimeSec,
		ProgressEveryMM:   10.0,
		MaxLinesPerTick:   machine.LookaheadSize,
		ArcToleranceMM:    machine.ArcToleranceMM,
		MaxSegmentTimeSec: machine.MaxSegmentTimeSec,
	}, source, limits, exec, realclock.New(), log)

	var broadcaster *statusd.Broadcaster
	var server *http.Server
	if statusAddr != "" {
		broadcaster = statusd.New(log)
		mux := http.NewServeMux()
		mux.HandleFunc("/status", broadcaster.Handler)
		server = &http.Server{Addr: statusAddr, Handler: mux}
		go server.ListenAndServe()
		defer server.Close()
	}

	if err := ctl.Start(); err != nil {
		return err
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to build scheduler: %w", err)
	}

	done := make(chan error, 1)
	_, err = sched.NewJob(
		gocron.DurationJob(time.Duration(tickMS)*time.Millisecond),
		gocron.NewTask(func() {
			if broadcaster != nil {
				drainCommands(ctl, broadcaster)
			}

			finished, perr := ctl.Pump()
			if broadcaster != nil {
				broadcaster.Publish(currentStatus(ctl))
			}
			if perr != nil {
				select {
				case done <- perr:
				default:
				}
				return
			}
			if finished {
				select {
				case done <- nil:
				default:
				}
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule tick job: %w", err)
	}

	sched.Start()
	err = <-done
	_ = sched.Shutdown()
	if err != nil {
		return err
	}

	color.Green("job complete")
	return nil
}

func currentStatus(ctl *controller.Controller) statusd.Status {
	lines, dist := ctl.Progress()
	return statusd.NewStatus(ctl.JobID(), ctl.State(), lines, dist)
}

// drainCommands applies every CommandRequest currently queued on the
// broadcaster, from the single goroutine that also calls ctl.Pump —
// this is the only place Controller's mutators are ever called, so it
// never races with Pump (see package doc comment).
func drainCommands(ctl *controller.Controller, b *statusd.Broadcaster) {
	for {
		select {
		case req := <-b.Commands():
			err := applyCommand(ctl, req.Command)
			req.Reply <- statusd.CommandResult{Status: currentStatus(ctl), Err: err}
		default:
			return
		}
	}
}

func applyCommand(ctl *controller.Controller, cmd statusd.Command) error {
	switch cmd.Action {
	case "feed-hold":
		return ctl.FeedHold()
	case "resume":
		return ctl.Resume()
	case "cancel":
		return ctl.Cancel()
	case "reset":
		return ctl.Reset()
	case "status":
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Action)
	}
}
