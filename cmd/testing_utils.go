package cmd

import (
	"io"

	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/utils"

	"github.com/spf13/cobra"
)

// Helpers used by the integration tests under test/integration.

// SetVerbose sets the verbose flag for testing.
func SetVerbose(value bool) {
	verbose = value
}

// SetDebug sets the debug flag for testing.
func SetDebug(value bool) {
	debug = value
}

// SetSecretReaders replaces the terminal readers used for passphrases and
// hidden values. Nil arguments restore the terminal implementations.
func SetSecretReaders(passphrase func(string) ([]byte, error), newPassphrase func(string, string) ([]byte, error)) {
	if passphrase == nil {
		passphrase = utils.ReadPassphrase
	}
	if newPassphrase == nil {
		newPassphrase = utils.ReadNewPassphrase
	}
	passphraseReader = passphrase
	secretReader = passphrase
	newPassphraseReader = newPassphrase
}

// SetDoctorExitFunc replaces os.Exit for the doctor command.
func SetDoctorExitFunc(fn func(int)) {
	doctorExitFunc = fn
}

// PrepareTestCLI resets global state and points the root command at the
// given streams and arguments. Nil streams are left at their defaults.
func PrepareTestCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	ResetGlobalState()
	SetLogger(logger.Logger{Out: stderr, Err: stderr})

	RootCmd.SetArgs(args)
	RootCmd.SetIn(stdin)
	RootCmd.SetOut(stdout)
	RootCmd.SetErr(stderr)
	return RootCmd
}
