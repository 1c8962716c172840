// Package vault is the public face of credvault: a Vault value holds the two
// document paths, the key source and the logger, and exposes the five core
// operations (generate, store, set, get, clear) plus listing, deletion,
// rotation and status.
//
// A typical lifecycle:
//
//	v, err := vault.New(vault.Options{
//	    MasterKeyPath:   "/home/alice/.config/credvault/master_key.json",
//	    CredentialsPath: "/home/alice/.local/share/credvault/credentials.json",
//	    Source:          secrets.SystemBound(),
//	})
//	key, _ := v.GenerateMasterKey()
//	_ = v.StoreMasterKey(key, nil)
//	secrets.WipeKey(key)
//	_ = v.SetSecure("db_password", "p@ss")
//	value, _ := v.GetSecure("db_password")
//
// Every operation that needs the master key unwraps it, uses it and wipes it
// before returning. Nothing is cached between calls.
package vault
