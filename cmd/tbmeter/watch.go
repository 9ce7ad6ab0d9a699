package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duskforge/tbmeter/internal/engine"
	"github.com/duskforge/tbmeter/internal/hostadapter"
	"github.com/duskforge/tbmeter/internal/log"
	"github.com/duskforge/tbmeter/internal/tui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <binary> [key=value ...]",
		Short: "Run a guest under the metering engine with a live terminal dashboard",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	binary := args[0]
	installArgs, err := resolveInstallArgs(binary, args[1:])
	if err != nil {
		return err
	}

	host, err := hostadapter.New(binary)
	if err != nil {
		return fmt.Errorf("set up guest: %w", err)
	}
	defer host.Close()

	opts := engine.ParseInstallArgs(installArgs)
	opts.DiagnosticLog = log.L.WithCategory("engine")
	eng := engine.New(host, opts)

	runErr := make(chan error, 1)
	go func() { runErr <- host.Run() }()

	if err := tui.Run(eng); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return <-runErr
}
