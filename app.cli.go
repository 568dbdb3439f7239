package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// ServeOptions holds the flags of the serve command.
type ServeOptions struct {
	ConfigFile string
	EnvFile    string
}

// NewRootCommand creates the bookstore command. Without subcommand it serves.
func NewRootCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:           "bookstore",
		Short:         "Bookstore - books catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "./config.yml", "path to the yaml configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env", "./config.env", "path to the optional dotenv file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewServeCommand creates the command that starts the web server.
func NewServeCommand(opts *ServeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bookstore web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

// NewVersionCommand creates the command that prints build details.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build details",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tag: %s\ncommit: %s\nbuilt: %s\ngo: %s\n", GitTag, GitCommit, BuildTime, runtime.Version())
		},
	}
}

func runServe(opts *ServeOptions) error {
	app, err := NewApp(opts.ConfigFile, opts.EnvFile)
	if err != nil {
		return fmt.Errorf("application failed to initialized: %w", err)
	}
	return app.Run()
}
