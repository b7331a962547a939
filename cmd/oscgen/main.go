package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/oisee/oscgen/pkg/audio"
	"github.com/oisee/oscgen/pkg/metrics"
	"github.com/oisee/oscgen/pkg/patch"
	"github.com/oisee/oscgen/pkg/tui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	o, err := parseArgs(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "oscgen: %v\n", err)
		return 2
	}

	level, err := o.level()
	if err != nil {
		fmt.Fprintf(os.Stderr, "oscgen: %v\n", err)
		return 2
	}
	if _, err := o.flagConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "oscgen: %v\n", err)
		return 2
	}
	logger, err := newLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oscgen: %v\n", err)
		return 1
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generate(ctx, o, logger); err != nil {
		if patch.IsLoadError(err) {
			logger.Error("bad patch", zap.String("patch", o.patch), zap.Error(err))
		} else {
			logger.Error("oscgen failed", zap.Error(err))
		}
		return 1
	}
	return 0
}

// newLogger builds a console logger on stderr; stdout carries sample data
func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func generate(ctx context.Context, o *options, logger *zap.Logger) error {
	cfg, script, err := resolveConfig(o)
	if err != nil {
		return err
	}
	if script != nil {
		defer script.Close()
		logger.Debug("patch loaded", zap.String("patch", script.Name))
	}

	if o.play {
		if o.changed("output") || (cfg.Output != "" && cfg.Output != "-") {
			return errors.New("--play and an output file are exclusive")
		}
		if cfg.Container != patch.ContainerNone {
			logger.Warn("container ignored while playing", zap.Stringer("container", cfg.Container))
			cfg.Container = patch.ContainerNone
		}
	}
	if o.monitor && !o.play && isStdout(cfg.Output) {
		return errors.New("--monitor needs --output or --play, the terminal is taken")
	}

	if o.dump {
		spew.Fdump(os.Stderr, cfg)
	}

	var regOpts []audio.RegistryOption
	if o.changed("seed") {
		regOpts = append(regOpts, audio.WithRand(rand.New(rand.NewPCG(o.seed, o.seed))))
	}
	reg := audio.NewRegistry(regOpts...)
	for name, fn := range cfg.Generators {
		reg.Define(name, fn)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	// The monitor owns the terminal while it runs
	genLogger := logger
	if o.monitor {
		genLogger = zap.NewNop()
	}
	gen := audio.NewGenerator(reg, audio.WithLogger(genLogger), audio.WithMetrics(m))
	if err := gen.Configure(cfg); err != nil {
		return err
	}

	sink, closeSink, err := openSink(o, cfg)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var program *tea.Program
	if o.monitor {
		tap := tui.NewTap(sink, 512)
		if cfg.Container == patch.ContainerWAV {
			tap.Skip(audio.WAVHeaderSize)
		}
		sink = tap
		program = tea.NewProgram(tui.NewModel(cfg, gen, tap, cancel), tea.WithContext(ctx))
		g.Go(func() error {
			_, err := program.Run()
			cancel()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	if o.metricsAddr != "" {
		srv := &http.Server{
			Addr:              o.metricsAddr,
			Handler:           metrics.Handler(promReg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			genLogger.Info("metrics listening", zap.String("addr", o.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	started := time.Now()
	g.Go(func() error {
		runErr := gen.Run(gctx, sink)
		closeErr := closeSink()
		if program != nil {
			program.Send(tui.DoneMsg{Err: runErr})
		} else {
			cancel()
		}

		if errors.Is(runErr, context.Canceled) {
			genLogger.Info("interrupted", zap.Int64("ticks", gen.Ticks()))
			runErr = nil
		}
		if runErr != nil {
			return runErr
		}
		if closeErr != nil {
			return fmt.Errorf("close output: %w", closeErr)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if script != nil {
		if err := script.Err(); err != nil {
			return err
		}
	}

	logger.Info("done",
		zap.Int64("ticks", gen.Ticks()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func isStdout(output string) bool {
	return output == "" || output == "-"
}

// openSink opens where samples go: the audio device, a file or stdout
func openSink(o *options, cfg *patch.RunConfig) (io.Writer, func() error, error) {
	if o.play {
		rt, err := audio.NewRealtimeOutput(cfg.SampleRate)
		if err != nil {
			return nil, nil, fmt.Errorf("open audio device: %w", err)
		}
		return rt, rt.Close, nil
	}

	if isStdout(cfg.Output) {
		if term.IsTerminal(int(os.Stdout.Fd())) && !o.force {
			return nil, nil, errors.New("refusing to write samples to a terminal, redirect stdout or use --force")
		}
		w := bufio.NewWriter(os.Stdout)
		return w, w.Flush, nil
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		flushErr := w.Flush()
		if err := f.Close(); err != nil {
			return err
		}
		return flushErr
	}, nil
}
