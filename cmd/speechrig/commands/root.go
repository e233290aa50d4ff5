// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ik5/speechrig/internal/config"
	"github.com/ik5/speechrig/internal/logging"
)

// globals shared by every subcommand of one root.
type globals struct {
	configPath string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	cfgErr error
	log    zerolog.Logger
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	g := &globals{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "speechrig",
		Short: "Animate a facial rig from recorded speech",
		Long: `speechrig - turn recorded speech into facial rig animation curves.

Audio (wav, mp3, ogg vorbis, aiff) is normalized to 16 kHz mono, encoded by
the audio encoder model, decoded into face, blink and head controls by the
animation decoder model, resampled to the requested frame rate and mapped
onto raw rig controls.

Configuration is read from speechrig.yaml in the working directory or
~/.speechrig/, or from --config. SPEECHRIG_* environment variables override
file values, e.g. SPEECHRIG_RUNTIME_LIBRARY_PATH.

Examples:
  # Animate a file with the configured models
  speechrig animate hello.wav -o hello.json --mood happiness

  # Serve animations over HTTP
  speechrig serve --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (default speechrig.yaml)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newAnimateCmd(g),
		newNormalizeCmd(g),
		newControlsCmd(g),
		newServeCmd(g),
		newVersionCmd(g),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// init loads the config and builds the logger. A config error is kept for
// the commands that need it so `speechrig version` still works.
func (g *globals) init(cmd *cobra.Command) error {
	g.cfg, g.cfgErr = config.Load(g.configPath)

	logCfg := logging.DefaultConfig()
	if g.cfg != nil {
		logCfg = g.cfg.LoggingConfig()
	}
	logCfg.Output = cmd.ErrOrStderr()
	if g.logLevel != "" {
		logCfg.Level = logging.LogLevel(g.logLevel)
	}
	if g.verbose {
		logCfg.Level = logging.LevelDebug
	}

	log, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	g.log = log
	return nil
}

// config returns the loaded configuration.
func (g *globals) config() (*config.Config, error) {
	if g.cfg == nil {
		if g.cfgErr != nil {
			return nil, fmt.Errorf("config not available: %w", g.cfgErr)
		}
		return nil, fmt.Errorf("config not available")
	}
	return g.cfg, nil
}
