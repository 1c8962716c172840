package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/workflows"

	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetStatusCommandState() {
	statusJSONOutput = false
}

// statusJSON is the machine-readable form of a status report.
type statusJSON struct {
	Initialized      bool     `json:"initialized"`
	VaultUUID        string   `json:"vault_uuid,omitempty"`
	Mode             string   `json:"mode,omitempty"`
	CreatedAt        string   `json:"created_at,omitempty"`
	MasterKeyPresent bool     `json:"master_key_present"`
	KDF              string   `json:"kdf,omitempty"`
	MasterKeyPath    string   `json:"master_key_path"`
	CredentialsPath  string   `json:"credentials_path"`
	AuditLogPath     string   `json:"audit_log_path"`
	Fields           []string `json:"fields"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the vault lives and what it holds",
	Long: `Shows the vault's paths, derivation mode, KDF and stored field names. The
master key is not unlocked, so no passphrase is asked for.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		env, err := newEnv()
		if err != nil {
			return reportError(cmd, err)
		}

		result, err := workflows.Status(context.Background(), env, workflows.StatusOptions{})
		if err != nil {
			return reportError(cmd, err)
		}

		if statusJSONOutput {
			return outputStatusJSON(cmd.OutOrStdout(), result)
		}
		printStatus(cmd.OutOrStdout(), result)
		return nil
	},
}

func outputStatusJSON(w io.Writer, r *workflows.StatusResult) error {
	out := statusJSON{
		Initialized:      r.Initialized,
		VaultUUID:        r.VaultUUID,
		Mode:             string(r.Mode()),
		MasterKeyPresent: r.MasterKeyPresent,
		KDF:              r.KDF,
		MasterKeyPath:    r.MasterKeyPath,
		CredentialsPath:  r.CredentialsPath,
		AuditLogPath:     r.AuditLogPath,
		Fields:           r.Fields,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if out.Fields == nil {
		out.Fields = []string{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printStatus(w io.Writer, r *workflows.StatusResult) {
	if !r.Initialized && !r.MasterKeyPresent {
		fmt.Fprint(w, ui.Warning.Sprint("⚠")+" No vault found. Expected files at:"+utils.FormatPaths([]string{r.MasterKeyPath, r.CredentialsPath}))
		fmt.Fprintln(w, ui.Info.Sprint("→")+" Run "+ui.Code.Sprint("credvault init")+" to create one")
		return
	}

	fmt.Fprintln(w, "Vault:       "+ui.Highlight.Sprint(r.VaultUUID))
	fmt.Fprintln(w, "Mode:        "+string(r.Mode()))
	if !r.CreatedAt.IsZero() {
		fmt.Fprintln(w, "Created:     "+r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if r.KDF != "" {
		fmt.Fprintln(w, "KDF:         "+r.KDF)
	}
	fmt.Fprintln(w, "Master key:  "+ui.Path.Sprint(r.MasterKeyPath)+presence(r.MasterKeyPresent))
	fmt.Fprintln(w, "Credentials: "+ui.Path.Sprint(r.CredentialsPath))
	fmt.Fprintln(w, "Audit log:   "+ui.Path.Sprint(r.AuditLogPath))
	fmt.Fprintln(w)

	if len(r.Fields) == 0 {
		fmt.Fprintln(w, ui.Muted.Sprint("No fields stored"))
		return
	}
	fmt.Fprintf(w, "Fields (%d):\n%s", len(r.Fields), utils.FormatFields(r.Fields))
}

func presence(present bool) string {
	if present {
		return ""
	}
	return " " + ui.Error.Sprint("(missing)")
}
