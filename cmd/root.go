// Package cmd implements the stylecore command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/stylecore/config"
	"github.com/chrisuehlinger/stylecore/css"
	"github.com/chrisuehlinger/stylecore/layout"
	"github.com/chrisuehlinger/stylecore/render"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

type options struct {
	configFile string
	output     string
	width      float64
	height     float64
	media      string
	solver     string
}

// app carries state shared by the subcommands once PersistentPreRunE has
// loaded the configuration.
type app struct {
	opts options
	cfg  *config.Config
	log  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "stylecore",
		Short:         "Stylecore cascades CSS over HTML documents and lays out the result.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.configFile, "config", "c", "", "config file (default is ./stylecore.yaml)")
	flags.StringVarP(&a.opts.output, "output", "o", "json", "output format: json or yaml")
	flags.Float64Var(&a.opts.width, "width", 0, "viewport width in px")
	flags.Float64Var(&a.opts.height, "height", 0, "viewport height in px")
	flags.StringVar(&a.opts.media, "media", "", "media type: all, screen, print or speech")
	flags.StringVar(&a.opts.solver, "solver", "", "geometry solver: flex or yoga")

	root.AddCommand(newLayoutCmd(a), newCSSCmd(a), newConfigCmd(a))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initialize loads configuration, applies flag overrides and builds the
// logger. Flags win over the environment, which wins over the file.
func (a *app) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(viper.New(), a.opts.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Viewport.Width = a.opts.width
	}
	if flags.Changed("height") {
		cfg.Viewport.Height = a.opts.height
	}
	if flags.Changed("media") {
		cfg.Viewport.MediaType = a.opts.media
	}
	if flags.Changed("solver") {
		cfg.Layout.Solver = a.opts.solver
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if _, err := newEncoder(a.opts.output); err != nil {
		return err
	}

	log, err := cfg.Logging.Build()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.log.Debug("Configuration loaded",
		zap.Float64("width", cfg.Viewport.Width),
		zap.Float64("height", cfg.Viewport.Height),
		zap.String("media", cfg.Viewport.MediaType),
		zap.Int("workers", cfg.Cascade.Workers),
		zap.String("solver", cfg.Layout.Solver))
	return nil
}

func (a *app) cascade() (*css.Engine, error) {
	ec, err := a.cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	return css.NewEngine(a.log, ec), nil
}

func (a *app) pipeline() (*render.Pipeline, error) {
	cascade, err := a.cascade()
	if err != nil {
		return nil, err
	}
	lay := layout.NewEngine(a.log, a.cfg.Layout.Solvers(), a.cfg.ViewportSize())
	return render.New(a.log, cascade, lay), nil
}
