package cmd

import (
	"errors"
	"fmt"

	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/ui"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	RootCmd = &cobra.Command{
		Use:   "credvault",
		Short: "Store credentials encrypted under a machine-bound master key",
		Long: `credvault keeps named credentials encrypted on disk.

A random master key encrypts every field. The master key itself is wrapped
under a key derived from this machine's identity (hostname, OS, architecture
and user), optionally combined with a passphrase, so the files are useless
when copied elsewhere.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.ErrOrStderr(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			banner := figure.NewFigure("credvault", "small", true)
			fmt.Fprintln(out, banner.String())
			fmt.Fprintln(out, ui.Info.Sprint("→")+" Run "+ui.Code.Sprint("credvault init")+" to create a vault, or "+ui.Code.Sprint("credvault --help")+" for all commands")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(clearCmd)
	RootCmd.AddCommand(rotateCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(logCmd)
}

// Execute runs the root command. Errors not already described by a command,
// such as unknown flags, are printed here.
func Execute() error {
	err := RootCmd.Execute()
	var reported reportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintln(RootCmd.ErrOrStderr(), ui.Error.Sprint("✗")+" "+err.Error())
	}
	return err
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetInitCommandState()
	resetSetCommandState()
	resetClearCommandState()
	resetRotateCommandState()
	resetStatusCommandState()
	resetDoctorCommandState()
	resetLogCommandState()
	resetFlagValues(RootCmd)
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
