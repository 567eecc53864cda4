package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/ZeitounCorp/name2port/internal/config"
	"github.com/ZeitounCorp/name2port/internal/docker"
	"github.com/ZeitounCorp/name2port/internal/inspect"
	"github.com/ZeitounCorp/name2port/internal/logger"
	"github.com/ZeitounCorp/name2port/internal/probe"
	"github.com/ZeitounCorp/name2port/internal/resolve"
)

// Options carries everything a command needs. Pointer fields are flag
// overrides: nil means "use the config file value". Prober, Inspector
// and DiagSink default to the real implementations and exist for test
// injection.
type Options struct {
	ConfigPath  string
	Host        string // "" = use config
	MinPort     *int
	MaxPort     *int
	MaxAttempts *int
	Verbose     bool

	Prober    probe.Prober
	Inspector inspect.Inspector
	DiagSink  io.Writer // human diagnostics, defaults to stderr
}

// env is the wired-up state for one command invocation.
type env struct {
	config    config.Config
	logger    logger.Logger
	prober    probe.Prober
	inspector inspect.Inspector
	diag      io.Writer
}

// withEnv loads config, applies flag overrides, re-validates the
// merged settings and runs fn. Validation failures surface before any
// probing happens.
func withEnv(opts Options, fn func(*env) error) error {
	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg, err := config.Load(config.ExpandPath(path))
	if err != nil {
		return err
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.MinPort != nil {
		cfg.MinPort = *opts.MinPort
	}
	if opts.MaxPort != nil {
		cfg.MaxPort = *opts.MaxPort
	}
	if opts.MaxAttempts != nil {
		cfg.MaxAttempts = *opts.MaxAttempts
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	prober := opts.Prober
	if prober == nil {
		timeout, err := cfg.ProbeTimeoutDuration()
		if err != nil {
			return err
		}
		prober = probe.TCPProber{Timeout: timeout}
	}
	inspector := opts.Inspector
	if inspector == nil {
		// One capability check per invocation, never per probe.
		inspector = inspect.Detect()
	}
	diag := opts.DiagSink
	if diag == nil {
		diag = os.Stderr
	}

	e := &env{
		config:    cfg,
		logger:    logger.Logger{Path: cfg.LogFile, Verbose: opts.Verbose},
		prober:    prober,
		inspector: inspector,
		diag:      diag,
	}
	return fn(e)
}

func (e *env) request(name string) resolve.Request {
	return resolve.Request{
		Name:        name,
		Host:        e.config.Host,
		MinPort:     e.config.MinPort,
		MaxPort:     e.config.MaxPort,
		MaxAttempts: e.config.MaxAttempts,
	}
}

// reportOccupied prints the diagnostic block for one collision. All
// output goes to the diagnostic sink, never stdout, so scripts can
// capture the final port cleanly.
func (e *env) reportOccupied(c resolve.Candidate, listeners []inspect.Listener) {
	fmt.Fprintf(e.diag, "name2port: port %d occupied (attempt %d), retrying\n", c.Port, c.Salt+1)
	if len(listeners) == 0 {
		addr := net.JoinHostPort(e.config.Host, strconv.Itoa(c.Port))
		fmt.Fprintf(e.diag, "  %s pid=unknown name=unknown exe=unknown\n", addr)
		return
	}
	for _, l := range listeners {
		fmt.Fprintf(e.diag, "  %s\n", l)
		if l.Name == "docker-proxy" && docker.Available() {
			if container, err := docker.FindByPort(context.Background(), c.Port); err == nil {
				fmt.Fprintf(e.diag, "    container=%s project-dir=%s\n", container.Name, container.WorkingDir)
			}
		}
	}
}
