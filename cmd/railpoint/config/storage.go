package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/fieldcipher"
	"github.com/railpoint/railpoint/storage"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	storage.DSNConf
	Debug          bool                   `yaml:"debug"`
	Argon2idParams storage.Argon2idParams `yaml:"password_hashing"`
}

func (c *storageConf) validate() error {
	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "railpoint",
		Host: "localhost",
		DB:   "railpoint",
	},
	Debug: false,
	Argon2idParams: storage.Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	},
}

// LoadStorage connects the storage warehouse for the passed conf,
// injecting the cipher that seals payment coordinates.
func LoadStorage(c storageConf, cipher *fieldcipher.Cipher) (*storage.Storage, error) {
	cfg := storage.Config{
		Driver:    c.Driver,
		DSN:       c.DSN,
		DataDir:   c.DataDir,
		Debug:     c.Debug,
		UsersHash: c.Argon2idParams,
	}
	s, err := storage.New(cfg, cipher)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded storage backend")
	return s, nil
}
