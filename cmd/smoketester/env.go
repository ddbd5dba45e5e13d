package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"smoketester/internal/chipdb"
	"smoketester/internal/config"
	"smoketester/internal/ctxlog"
	"smoketester/internal/dut"
	"smoketester/internal/observ"
	"smoketester/internal/probe"
)

const configFileHint = config.FileName

// annotationNoEnv marks commands that run without configuration.
const annotationNoEnv = "smoketester/no-env"

type appEnv struct {
	cfg      config.Config
	logger   *slog.Logger
	timer    *observ.Timer
	useColor bool
	timings  bool
}

type envKey struct{}

func setupEnv(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode, err := readOutputMode("color", colorFlag)
	if err != nil {
		return err
	}
	useColor := colorMode.enabledFor(os.Stdout)
	color.NoColor = !useColor
	if cmd.Annotations[annotationNoEnv] != "" {
		return nil
	}

	env := &appEnv{timer: observ.NewTimer(), useColor: useColor}
	if env.timings, err = flags.GetBool("timings"); err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	idx := env.timer.Begin("config")
	if configPath != "" {
		env.cfg, err = config.Load(configPath)
	} else {
		env.cfg, err = config.Discover(".")
	}
	env.timer.End(idx, env.cfg.Path)
	if err != nil {
		return err
	}

	for flag, dst := range map[string]*string{
		"chip-db":    &env.cfg.ChipDB.Path,
		"log-level":  &env.cfg.Log.Level,
		"log-format": &env.cfg.Log.Format,
	} {
		v, err := flags.GetString(flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	env.logger = newLogger(env.cfg.Log.Level, env.cfg.Log.Format, cmd.ErrOrStderr())
	if env.cfg.Path != "" {
		env.logger.Debug("loaded configuration", "path", env.cfg.Path)
	}
	ctx := ctxlog.WithLogger(cmd.Context(), env.logger)
	cmd.SetContext(context.WithValue(ctx, envKey{}, env))
	return nil
}

func getEnv(cmd *cobra.Command) *appEnv {
	if env, ok := cmd.Context().Value(envKey{}).(*appEnv); ok {
		return env
	}
	panic("smoketester: command environment not initialised")
}

func reportTimings(cmd *cobra.Command, _ []string) {
	env, ok := cmd.Context().Value(envKey{}).(*appEnv)
	if !ok || !env.timings {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), env.timer.Summary())
}

func (e *appEnv) openChips() (*chipdb.Registry, error) {
	idx := e.timer.Begin("chipdb")
	reg, err := chipdb.Open(e.cfg.ChipDB.Path)
	note := "builtin"
	if e.cfg.ChipDB.Path != "" {
		note = e.cfg.ChipDB.Path
	}
	e.timer.End(idx, note)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("chip database ready", "source", note, "chips", reg.Len())
	return reg, nil
}

func (e *appEnv) probeManager() *probe.Manager {
	m := probe.NewManager(e.cfg.Probe.Sysfs, e.cfg.Probe.Devfs)
	m.Logger = e.logger
	return m
}

func (e *appEnv) resolver() (*dut.Resolver, error) {
	chips, err := e.openChips()
	if err != nil {
		return nil, err
	}
	r := dut.NewResolver(chips, e.probeManager())
	r.Logger = e.logger
	return r, nil
}

// definitionsDir picks the positional directory argument, falling back to
// the configured one.
func (e *appEnv) definitionsDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return e.cfg.Definitions.Dir
}

func (e *appEnv) collect(dir string) ([]*dut.Definition, error) {
	r, err := e.resolver()
	if err != nil {
		return nil, err
	}
	c := &dut.Collector{Resolver: r, Jobs: e.cfg.Definitions.Jobs, Logger: e.logger}
	idx := e.timer.Begin("collect")
	defs, err := c.Collect(dir)
	e.timer.End(idx, fmt.Sprintf("%d definitions", len(defs)))
	return defs, err
}
