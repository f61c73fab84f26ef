package config

import (
	"os"

	"github.com/pkg/errors"
)

// Environment variables that override the secrets section. Keeping
// secrets out of the config file is the recommended deployment mode.
const (
	EnvSigningSecret     = "UPI_SECRET_KEY"
	EnvDataEncryptionKey = "DATA_ENC_KEY"
)

// secretsConf holds the two service secrets: the HMAC secret that signs
// identifiers and the AES key that seals payment coordinates. Values may
// be raw strings or base64.
type secretsConf struct {
	SigningSecret     string `yaml:"signing_secret"`
	DataEncryptionKey string `yaml:"data_encryption_key"`
}

func (c *secretsConf) validate() error {
	if v := os.Getenv(EnvSigningSecret); v != "" {
		c.SigningSecret = v
	}
	if v := os.Getenv(EnvDataEncryptionKey); v != "" {
		c.DataEncryptionKey = v
	}
	if c.SigningSecret == "" {
		return errors.Errorf("no signing secret configured; set %s or secrets.signing_secret", EnvSigningSecret)
	}
	if c.DataEncryptionKey == "" {
		return errors.Errorf(
			"no data encryption key configured; set %s or secrets.data_encryption_key", EnvDataEncryptionKey,
		)
	}
	return nil
}
