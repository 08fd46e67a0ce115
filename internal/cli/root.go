// Package cli implements the SkillMint command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"errors"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/output"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	assumeYes    bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *zap.Logger
	closeLog  func() error
	formatter *output.Formatter

	helpOnce sync.Once
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "skillmint",
	Short: "Buy SkillMint courses with an Ethereum wallet",
	Long: `SkillMint is a storefront for on-chain courses.

It connects a local HD or keystore wallet, reads course prices and your
access from the SkillMint contract, and submits purchases. The same
storefront can be served to a browser with live notifications.

Example:
  skillmint wallet create
  skillmint store
  skillmint buy 3
  skillmint serve --listen 127.0.0.1:8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	helpOnce.Do(func() { listSubcommands(rootCmd) })

	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return storeerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Defaults()
		cfg.Home = home
	default:
		return storeerr.WithDetails(storeerr.WithCause(storeerr.ErrConfigInvalid, err),
			map[string]string{"path": config.Path(home)})
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if assumeYes {
		cfg.Wallet.AutoApprove = true
	}

	logger, closeLog, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File, cfg.Output.Verbose)
	if err != nil {
		logger, closeLog = config.NullLogger(), func() error { return nil }
	}

	output.Emoji = cfg.Output.Color != "never"

	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	formatter = output.NewFormatter(output.DetectFormat(os.Stdout, explicitFormat), os.Stdout)
	return nil
}

// cleanup releases resources.
func cleanup() {
	if closeLog != nil {
		_ = closeLog()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "skillmint data directory (default: ~/.skillmint)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve wallet signing requests without prompting")
}
