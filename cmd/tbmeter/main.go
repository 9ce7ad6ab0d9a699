// Command tbmeter is the CLI driver around the metering engine: it loads a
// guest binary under a Unicorn-backed x86-64 host, arms the engine exactly
// as an emulator's install callback would, runs the guest to completion (or
// to the hard limit), and lets the JSON report land on stderr.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duskforge/tbmeter/internal/config"
	"github.com/duskforge/tbmeter/internal/log"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tbmeter",
		Short: "Meter guest instruction counts, syscalls, and memory under emulation",
		Long: `tbmeter measures the deterministic resource consumption of a guest
program: total instructions executed from its entry (or main), a per-number
breakdown of system calls, guest memory allocation inferred from mmap/brk
activity, and host-side memory/IO statistics. An optional instruction ceiling
aborts the guest with exit code 137 and a "limit reached" verdict, for judging
untrusted workloads.

Examples:
  tbmeter run ./guest binary=./guest limit=1000000
  tbmeter inspect ./guest
  tbmeter watch ./guest limit=1000000`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				log.L = log.NewNop()
				return
			}
			log.Init(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-report output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file with default install args")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveInstallArgs layers the config file's defaults under the
// command-line install-arg strings, exactly the precedence SPEC_FULL's
// ambient configuration section describes.
func resolveInstallArgs(binary string, extra []string) ([]string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	args := cfg.InstallArgs()
	args = append(args, extra...)
	if binary != "" {
		args = append(args, "binary="+binary)
	}
	return args, nil
}
