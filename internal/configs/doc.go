// Package configs resolves where a vault lives and stores its non-secret
// settings.
//
// # Settings
//
// LoadSettings returns the per-user directories:
//
//   - ConfigDir: os.UserConfigDir()/credvault, or $CREDVAULT_CONFIG_DIR.
//     Holds config.toml and master_key.json.
//   - DataDir: $XDG_DATA_HOME/credvault (~/.local/share/credvault when unset,
//     %LOCALAPPDATA%\credvault on Windows), or $CREDVAULT_DATA_DIR.
//     Holds credentials.json and audit.jsonl.
//
// Settings are plain values. Nothing is resolved at package init, so tests
// can point a vault anywhere with t.Setenv.
//
// # Vault Configuration
//
// config.toml records the vault UUID, the derivation mode chosen at init and
// the KDF cost used for new master key records, plus optional path overrides:
//
//	[vault]
//	vault_uuid = "6f1c..."
//	mode = "system"
//	created_at = 2026-01-01T00:00:00Z
//
//	[kdf]
//	algorithm = "scrypt"
//	scrypt_n = 65536
//	scrypt_r = 8
//	scrypt_p = 1
//
// The master key record remains the authority on mode and KDF parameters for
// decryption; config.toml only decides which key source the CLI builds.
package configs
