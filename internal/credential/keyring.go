package credential

import (
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/trakker/internal/model"
)

const serviceName = "trakker"

// Open returns the OS keyring used for session tokens. It prefers the
// platform secret store and falls back to an encrypted file under
// ~/.config/trakker/credentials.
func Open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(model.ConfigDir(), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("trakker-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Memory returns an in-process keyring. Sessions stored in it do not
// survive a restart; used by tests and --ephemeral runs.
func Memory() keyring.Keyring {
	return keyring.NewArrayKeyring(nil)
}
