package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"snake-term/ai"
	"snake-term/game"
	"snake-term/game/types"
	"snake-term/ui"

	log "github.com/sirupsen/logrus"
)

// frontend is a screen plus keyboard for the game.
type frontend interface {
	game.InputSource
	game.Renderer
	AwaitRestart(res game.Result) bool
	Close()
}

type options struct {
	cfg       types.Config
	ui        string
	autopilot bool
	agent     string
	qtable    string
	train     int
	logFile   string
	verbose   bool
}

func parseFlags(args []string) (options, error) {
	def := types.DefaultConfig()
	opts := options{}

	fs := flag.NewFlagSet("snake", flag.ContinueOnError)
	fs.IntVar(&opts.cfg.Rows, "rows", def.Rows, "Playable rows")
	fs.IntVar(&opts.cfg.Cols, "cols", def.Cols, "Playable columns")
	speed := fs.Int("speed", int(def.InitialInterval/time.Millisecond), "Initial tick interval in milliseconds (lower = faster)")
	minSpeed := fs.Int("min-speed", int(def.MinInterval/time.Millisecond), "Fastest tick interval in milliseconds")
	fs.Float64Var(&opts.cfg.SpeedDecay, "decay", def.SpeedDecay, "Interval multiplier applied each time food is eaten")
	fs.Uint64Var(&opts.cfg.Seed, "seed", def.Seed, "Random seed for food placement")
	fs.StringVar(&opts.ui, "ui", "terminal", "Frontend: terminal or window")
	fs.BoolVar(&opts.autopilot, "autopilot", false, "Let the Q-learning agent play")
	fs.StringVar(&opts.agent, "agent", "tabular", "Learner for -autopilot and -train: tabular or dqn")
	fs.StringVar(&opts.qtable, "qtable", "", "Agent file to load and save (Q-table JSON, or DQN weights in gob)")
	fs.IntVar(&opts.train, "train", 0, "Train the agent headless for N games and exit")
	fs.StringVar(&opts.logFile, "log", "", "Write logs to this file")
	fs.BoolVar(&opts.verbose, "v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.cfg.InitialInterval = time.Duration(*speed) * time.Millisecond
	opts.cfg.MinInterval = time.Duration(*minSpeed) * time.Millisecond
	if opts.ui != "terminal" && opts.ui != "window" {
		return opts, fmt.Errorf("unknown -ui %q: want terminal or window", opts.ui)
	}
	if opts.agent != "tabular" && opts.agent != "dqn" {
		return opts, fmt.Errorf("unknown -agent %q: want tabular or dqn", opts.agent)
	}
	return opts, nil
}

// setupLogging routes logrus away from the terminal the game draws on.
// Training has no screen, so it keeps logging to stderr.
func setupLogging(opts options) (func(), error) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}
	if opts.logFile == "" {
		if opts.train == 0 {
			log.SetOutput(io.Discard)
		}
		return func() {}, nil
	}
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() { f.Close() }, nil
}

func newAgent(opts options) (ai.Learner, error) {
	var agent ai.Learner = ai.NewAgent(opts.cfg.Seed)
	if opts.agent == "dqn" {
		dqn, err := ai.NewDQNAgent(opts.cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("build dqn: %w", err)
		}
		agent = dqn
	}
	if opts.qtable == "" {
		return agent, nil
	}
	if err := agent.Load(opts.qtable); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.WithField("file", opts.qtable).Info("no saved agent yet, starting fresh")
		} else {
			log.WithError(err).Warn("could not load agent")
		}
	}
	return agent, nil
}

func saveAgent(opts options, agent ai.Learner) {
	if opts.qtable == "" {
		return
	}
	if err := agent.Save(opts.qtable); err != nil {
		log.WithError(err).Error("could not save agent")
	}
}

func newFrontend(opts options) (frontend, error) {
	grid, err := types.NewGrid(opts.cfg.Rows, opts.cfg.Cols)
	if err != nil {
		return nil, err
	}
	if opts.ui == "window" {
		return ui.NewWindow(grid), nil
	}
	return ui.NewTerminal(grid)
}

// play runs sessions until the player declines a retry and returns the
// last result.
func play(opts options, fe frontend, agent ai.Learner) (game.Result, error) {
	cfg := opts.cfg
	for {
		g, err := game.NewGame(cfg)
		if err != nil {
			return game.Result{}, err
		}

		var input game.InputSource = fe
		var pilot *ai.Autopilot
		if agent != nil {
			pilot = ai.NewAutopilot(agent, g, fe)
			input = pilot
		}

		sess := game.NewSession(g, input, fe)
		sess.SetPaused(true)
		res := sess.Run()
		if pilot != nil {
			pilot.Finish(res)
		}
		if res.Reason == game.ReasonQuit || !fe.AwaitRestart(res) {
			return res, nil
		}
		cfg.Seed++
	}
}

// interactive owns the frontend for the whole retry loop. The deferred
// Close restores the terminal even if a session panics.
func interactive(opts options, agent ai.Learner, open func(options) (frontend, error)) (game.Result, error) {
	fe, err := open(opts)
	if err != nil {
		return game.Result{}, err
	}
	defer fe.Close()
	return play(opts, fe, agent)
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	// Fail on a bad board before touching the terminal.
	if _, err := types.NewGrid(opts.cfg.Rows, opts.cfg.Cols); err != nil {
		return err
	}
	if err := opts.cfg.Validate(); err != nil {
		return err
	}

	if opts.train > 0 {
		agent, err := newAgent(opts)
		if err != nil {
			return err
		}
		summary, err := ai.Train(opts.cfg, opts.train, agent)
		if err != nil {
			return err
		}
		saveAgent(opts, agent)
		fmt.Println(summary)
		return nil
	}

	var agent ai.Learner
	if opts.autopilot {
		if agent, err = newAgent(opts); err != nil {
			return err
		}
	}

	res, err := interactive(opts, agent, newFrontend)
	if err != nil {
		return err
	}
	if agent != nil {
		saveAgent(opts, agent)
	}
	fmt.Printf("%s (%d ticks, length %d, %s)\n", res, res.Ticks, res.Length, res.Duration.Round(time.Second))
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "snake:", err)
		os.Exit(1)
	}
}
