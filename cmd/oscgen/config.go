package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/oisee/oscgen/pkg/patch"
)

// options holds the parsed command line
type options struct {
	rate        int
	length      float64
	output      string
	format      string
	waves       []string
	patch       string
	seed        uint64
	play        bool
	monitor     bool
	dump        bool
	force       bool
	metricsAddr string
	logLevel    string

	flags *pflag.FlagSet
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := pflag.NewFlagSet("oscgen", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: oscgen [flags] [patch.lua]\n\n")
		fmt.Fprintf(stderr, "Generates 8-bit mono PCM from a mix of oscillators.\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  oscgen -r 8000 -l 2 -w sine:la | aplay -f U8 -r 8000\n")
		fmt.Fprintf(stderr, "  oscgen -r 44100 -l 1 -f wav -o chord.wav -w 'sine:do' -w 'sine:mi' -w 'sine:sol'\n")
		fmt.Fprintf(stderr, "  oscgen --play --monitor patch.lua\n")
	}

	fs.IntVarP(&o.rate, "rate", "r", 0, "sample rate in Hz (or "+patch.EnvRate+")")
	fs.Float64VarP(&o.length, "length", "l", 0, "length in seconds, 0 runs until interrupted")
	fs.StringVarP(&o.output, "output", "o", "-", "output file, - for stdout")
	fs.StringVarP(&o.format, "format", "f", "none", "container format: none or wav")
	fs.StringArrayVarP(&o.waves, "wave", "w", nil, "wave GENERATOR[:FREQUENCY[:OFFSET]], repeatable; FREQUENCY is Hz or notes (\"mi flat 1oct\")")
	fs.StringVarP(&o.patch, "patch", "p", "", "Lua patch file")
	fs.Uint64Var(&o.seed, "seed", 0, "seed for the noise generator (random if unset)")
	fs.BoolVar(&o.play, "play", false, "play through the audio device instead of writing a file")
	fs.BoolVar(&o.monitor, "monitor", false, "show a live monitor in the terminal")
	fs.BoolVar(&o.dump, "dump", false, "print the resolved configuration to stderr")
	fs.BoolVar(&o.force, "force", false, "write raw samples even when stdout is a terminal")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error (or "+patch.EnvLogLevel+")")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		if o.patch != "" {
			return nil, errors.New("patch given both as --patch and as an argument")
		}
		o.patch = fs.Arg(0)
	default:
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	o.flags = fs
	return o, nil
}

// changed reports whether the named flag was given
func (o *options) changed(name string) bool {
	return o.flags != nil && o.flags.Changed(name)
}

// level resolves the log level from the flag, then the environment
func (o *options) level() (zapcore.Level, error) {
	s := o.logLevel
	if s == "" {
		s = os.Getenv(patch.EnvLogLevel)
	}
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(s)
}

// flagConfig returns the part of the configuration set on the command line.
// Only flags that were given are set, so Merge leaves lower layers alone.
func (o *options) flagConfig() (*patch.RunConfig, error) {
	cfg := &patch.RunConfig{}
	changed := o.changed

	if changed("rate") {
		cfg.SampleRate = o.rate
	}
	if changed("length") {
		cfg.Length = o.length
	}
	if changed("output") {
		cfg.Output = o.output
	}
	if changed("format") {
		c, err := patch.ParseContainer(o.format)
		if err != nil {
			return nil, err
		}
		cfg.Container = c
	}
	for _, s := range o.waves {
		w, err := patch.ParseWave(s)
		if err != nil {
			return nil, err
		}
		cfg.Waves = append(cfg.Waves, w)
	}
	return cfg, nil
}

// resolveConfig layers the environment, the patch file and the flags. The
// returned script is nil when no patch was given; otherwise it must stay open
// for the run and be closed by the caller.
func resolveConfig(o *options) (*patch.RunConfig, *patch.Script, error) {
	cfg, err := patch.FromEnv()
	if err != nil {
		return nil, nil, err
	}

	var script *patch.Script
	if o.patch != "" {
		script, err = patch.LoadFile(o.patch)
		if err != nil {
			return nil, nil, err
		}
		cfg.Merge(script.Config)
	}

	flagCfg, err := o.flagConfig()
	if err != nil {
		if script != nil {
			script.Close()
		}
		return nil, nil, err
	}
	cfg.Merge(flagCfg)

	// Zero values given on the command line still override the patch
	if o.changed("length") {
		cfg.Length = flagCfg.Length
	}
	if o.changed("format") {
		cfg.Container = flagCfg.Container
	}

	return cfg, script, nil
}
