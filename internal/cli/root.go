// Package cli implements the fchat command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tOgg1/fchat/internal/config"
	"github.com/tOgg1/fchat/internal/logging"
)

// Execute runs the fchat root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

// app carries flag values and the loaded configuration between commands.
type app struct {
	version   string
	cfgFile   string
	logLevel  string
	logFormat string

	cfg        *config.Config
	configUsed string
	logCloser  io.Closer
}

func newRootCmd(version string) *cobra.Command {
	a := &app{version: version}
	var resume bool

	cmd := &cobra.Command{
		Use:           "fchat",
		Short:         "Chat with an agent from the terminal",
		Long:          "fchat is a terminal chat client. Messages typed while the agent is responding are queued and sent in order once it is idle.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd, resume)
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/fchat/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format override (console, json)")
	cmd.Flags().BoolVar(&resume, "resume", false, "continue the most recent session")

	cmd.AddCommand(
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if a.cfgFile != "" {
		loader.SetConfigFile(a.cfgFile)
	}
	if a.logLevel != "" {
		loader.Set("logging.level", a.logLevel)
	}
	if a.logFormat != "" {
		loader.Set("logging.format", a.logFormat)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.configUsed = loader.ConfigFileUsed()

	// The chat TUI owns the terminal; everything else logs to stderr.
	interactive := cmd.Name() == "fchat"
	return a.initLogging(cmd.ErrOrStderr(), interactive)
}

func (a *app) initLogging(stderr io.Writer, interactive bool) error {
	out := stderr
	if a.cfg.Logging.File != "" {
		f, err := logging.OpenFile(a.cfg.Logging.File)
		if err != nil {
			return err
		}
		a.logCloser = f
		out = f
	} else if interactive {
		out = io.Discard
	}

	logging.Init(logging.Config{
		Level:        a.cfg.Logging.Level,
		Format:       a.cfg.Logging.Format,
		Output:       out,
		EnableCaller: a.cfg.Logging.EnableCaller,
	})
	return nil
}

func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fchat version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fchat %s\n", a.version)
			return err
		},
	}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsPreflight(err) {
		return 2
	}
	return 1
}
