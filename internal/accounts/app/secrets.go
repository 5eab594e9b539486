package app

import (
	"fmt"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// secretSize is the number of random bytes in a generated secret.
const secretSize = 32

// Secrets are the values the service needs that must survive restarts.
type Secrets struct {
	Pepper      string
	TokenSecret []byte
}

// LoadSecrets reads the pepper and token secret, generating missing files on
// first start. An inline token secret wins over the token secret file.
func LoadSecrets(cfg Config) (Secrets, error) {
	pepper, err := cryptox.LoadOrCreateSecret(cfg.PepperFile, secretSize)
	if err != nil {
		return Secrets{}, fmt.Errorf("load pepper: %w", err)
	}

	token := cfg.TokenSecret
	if token == "" {
		token, err = cryptox.LoadOrCreateSecret(cfg.TokenSecretFile, secretSize)
		if err != nil {
			return Secrets{}, fmt.Errorf("load token secret: %w", err)
		}
	}

	return Secrets{Pepper: pepper, TokenSecret: []byte(token)}, nil
}
