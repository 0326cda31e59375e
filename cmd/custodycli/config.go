package main

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Config is the process configuration, read from the environment.
type Config struct {
	// Home is the directory holding the database. Defaults to
	// $HOME/.custody
	Home string `env:"CUSTODY_HOME"`
	// Backend is the database kind, either leveldb or bolt.
	Backend string `env:"CUSTODY_BACKEND" envDefault:"leveldb"`
	// LogLevel is one of debug, info, error or none.
	LogLevel string `env:"CUSTODY_LOG_LEVEL" envDefault:"error"`
	// Key is the path to the private key file used for signing.
	// Defaults to $HOME/.custody.priv.key
	Key string `env:"CUSTODY_KEY"`
}

func loadConfig() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "config: %s", err)
	}
	if c.Home == "" {
		c.Home = filepath.Join(os.Getenv("HOME"), ".custody")
	}
	if c.Key == "" {
		c.Key = filepath.Join(os.Getenv("HOME"), ".custody.priv.key")
	}
	return &c, nil
}

// Logger returns a logger writing to stderr, filtered by the configured
// level.
func (c *Config) Logger() (log.Logger, error) {
	if c.LogLevel == "" || c.LogLevel == "none" {
		return log.NewNopLogger(), nil
	}
	opt, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	return log.NewFilter(logger, opt), nil
}

// session is an opened engine together with its store.
type session struct {
	db     custody.CommitKVStore
	engine *app.Engine
}

func (s *session) Close() error {
	return s.db.Close()
}

// openSession opens the configured store and builds an engine over it.
func openSession(c *Config) (*session, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	db, err := openStore(c.Home, c.Backend)
	if err != nil {
		return nil, err
	}
	e, _, err := NewEngine(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &session{db: db, engine: e}, nil
}
