package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	doctorJSONOutput bool
	doctorUnlock     bool

	// doctorExitFunc is swapped in tests.
	doctorExitFunc = os.Exit
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorUnlock, "unlock", false, "also unwrap the master key (prompts in passphrase mode)")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorUnlock = false
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the vault",
	Long: `Runs health checks on the vault files.

Checks performed:
  - config.toml is present and valid
  - the master key record parses and is only readable by you
  - the configured and recorded derivation modes agree
  - the credentials document parses and is only readable by you
  - with --unlock, the master key still unwraps on this machine

Exit codes:
  0 - All checks passed
  1 - Warnings found
  2 - Errors found

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting doctor command")

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		spinner, cleanup := startSpinner(cmd, "Running health checks...")
		defer cleanup()

		env.Passphrase = func() ([]byte, error) {
			defer pauseSpinner(spinner)()
			return promptPassphrase()
		}

		result, err := workflows.Doctor(context.Background(), env, workflows.DoctorOptions{Unlock: doctorUnlock})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Failed to run health checks: " + err.Error()
			return reportedError{err: err}
		}

		for _, check := range result.Checks {
			Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status.String(), check.Message)
		}

		spinner.FinalMSG = ""
		if doctorJSONOutput {
			spinner.Stop()
			if err := outputDoctorJSON(cmd.OutOrStdout(), result); err != nil {
				return reportedError{err: Logger.ErrorfAndReturn("Failed to write doctor report: %v", err)}
			}
		} else {
			spinner.Stop()
			printDoctorResults(cmd.OutOrStdout(), result)
			switch {
			case result.Summary.Errors > 0:
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Health checks completed with errors"
			case result.Summary.Warnings > 0:
				spinner.FinalMSG = ui.Warning.Sprint("⚠") + " Health checks completed with warnings"
			default:
				spinner.FinalMSG = ui.Success.Sprint("✓") + " Health checks completed"
			}
		}

		// Set exit code based on results.
		if result.Summary.Errors > 0 {
			cleanup()
			doctorExitFunc(2)
		} else if result.Summary.Warnings > 0 {
			cleanup()
			doctorExitFunc(1)
		}
		return nil
	},
}

// outputDoctorJSON outputs the result as JSON.
func outputDoctorJSON(w io.Writer, result *workflows.DoctorResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printDoctorResults prints the doctor results in a human-readable format.
func printDoctorResults(w io.Writer, result *workflows.DoctorResult) {
	for _, check := range result.Checks {
		var statusIcon string
		switch check.Status {
		case workflows.CheckPass:
			statusIcon = ui.Success.Sprint("✓")
		case workflows.CheckWarning:
			statusIcon = ui.Warning.Sprint("⚠")
		case workflows.CheckError:
			statusIcon = ui.Error.Sprint("✗")
		}
		fmt.Fprintf(w, "%s %s\n", statusIcon, check.Message)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed", result.Summary.Passed)
	if result.Summary.Warnings > 0 {
		fmt.Fprintf(w, ", %s", ui.Warning.Sprint(fmt.Sprintf("%d warning(s)", result.Summary.Warnings)))
	}
	if result.Summary.Errors > 0 {
		fmt.Fprintf(w, ", %s", ui.Error.Sprint(fmt.Sprintf("%d error(s)", result.Summary.Errors)))
	}
	fmt.Fprintln(w)

	if len(result.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Suggestions:")
		for _, suggestion := range result.Suggestions {
			fmt.Fprintf(w, "  %s %s\n", ui.Info.Sprint("→"), suggestion)
		}
	}
}
