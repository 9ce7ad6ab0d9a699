package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duskforge/tbmeter/internal/engine"
	"github.com/duskforge/tbmeter/internal/hostadapter"
	"github.com/duskforge/tbmeter/internal/log"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <binary> [key=value ...]",
		Short: "Run a guest binary under the metering engine",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
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
	opts.DiagnosticLog.Debug("guest mapped", log.Addr(host.Entry()))
	engine.New(host, opts)

	if err := host.Run(); err != nil {
		return err
	}

	if code := host.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}
