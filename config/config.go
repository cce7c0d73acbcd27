// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/opentensor/subtensor-js-tests-sub000/archiver"
	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/reconcile"
	"github.com/opentensor/subtensor-js-tests-sub000/rpc"
)

const (
	defaultEndpoint     = "ws://127.0.0.1:9944"
	defaultEVMEndpoint  = "http://127.0.0.1:9944"
	defaultMaxBlockWait = 2 * time.Minute
	defaultTxsPerBlock  = 1
)

// Environment overrides, applied after the JSON document.
const (
	EnvEndpoint       = "SUBTENSOR_ENDPOINT"
	EnvEVMEndpoint    = "SUBTENSOR_EVM_ENDPOINT"
	EnvRequestTimeout = "SUBTENSOR_REQUEST_TIMEOUT"
	EnvTxsPerBlock    = "SUBTENSOR_TXS_PER_BLOCK"
	EnvLogLevel       = "SUBTENSOR_LOG_LEVEL"
	EnvArchiverDSN    = "SUBTENSOR_ARCHIVER_DSN"
)

var (
	ErrMissingEndpoint = errors.New("endpoint is required")
	ErrInvalidValue    = errors.New("invalid config value")
)

type Config struct {
	// Node
	Endpoint       string        `json:"endpoint"`
	EVMEndpoint    string        `json:"evmEndpoint"`
	ConnectTimeout time.Duration `json:"connectTimeout"`
	RequestTimeout time.Duration `json:"requestTimeout"`
	DrainTimeout   time.Duration `json:"drainTimeout"`

	// Waiting
	MaxBlockWait time.Duration `json:"maxBlockWait"`

	// Encoding
	SS58Format      uint16 `json:"ss58Format"`
	ErrorIndexOrder string `json:"errorIndexOrder"` // "little" or "big"
	CacheMetadata   bool   `json:"cacheMetadata"`

	// Submission
	TxsPerBlock int `json:"txsPerBlock"`

	// Reconciliation
	InitialTempo     uint16 `json:"initialTempo"`
	MaxUnstakeRounds int    `json:"maxUnstakeRounds"`

	// Misc
	LogLevel logging.Level `json:"logLevel"`

	// Archiver
	ArchiverConfig archiver.ORMArchiverConfig `json:"archiverConfig"`

	loaded    bool
	byteOrder chain.ByteOrder
}

// New parses b over the defaults, applies environment overrides and
// validates the result. An empty b yields the defaults.
func New(b []byte) (*Config, error) {
	c := &Config{}
	c.setDefault()
	if len(b) > 0 {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", string(b), err)
		}
		c.loaded = true
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return New(nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return New(b)
}

func (c *Config) setDefault() {
	c.Endpoint = defaultEndpoint
	c.EVMEndpoint = defaultEVMEndpoint
	c.ConnectTimeout = rpc.DefaultConnectTimeout
	c.RequestTimeout = rpc.DefaultRequestTimeout
	c.DrainTimeout = rpc.DefaultDrainTimeout
	c.MaxBlockWait = defaultMaxBlockWait
	c.SS58Format = consts.SS58Format
	c.ErrorIndexOrder = chain.LittleEndian.String()
	c.CacheMetadata = false
	c.TxsPerBlock = defaultTxsPerBlock
	c.InitialTempo = consts.DefaultTempo
	c.MaxUnstakeRounds = reconcile.DefaultMaxUnstakeRounds
	c.LogLevel = logging.Info
	c.ArchiverConfig = archiver.ORMArchiverConfig{ArchiverType: "sqlite"}
}

func (c *Config) applyEnv() error {
	c.Endpoint = getEnv(EnvEndpoint, c.Endpoint)
	c.EVMEndpoint = getEnv(EnvEVMEndpoint, c.EVMEndpoint)
	c.ArchiverConfig.DSN = getEnv(EnvArchiverDSN, c.ArchiverConfig.DSN)
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, EnvRequestTimeout, v, err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv(EnvTxsPerBlock); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, EnvTxsPerBlock, v, err)
		}
		c.TxsPerBlock = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		lvl, err := logging.ToLevel(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, EnvLogLevel, v, err)
		}
		c.LogLevel = lvl
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	order, err := chain.ParseByteOrder(c.ErrorIndexOrder)
	if err != nil {
		return err
	}
	c.byteOrder = order
	switch {
	case c.TxsPerBlock < 1:
		return fmt.Errorf("%w: txsPerBlock %d", ErrInvalidValue, c.TxsPerBlock)
	case c.InitialTempo == 0:
		return fmt.Errorf("%w: initialTempo must be positive", ErrInvalidValue)
	case c.MaxUnstakeRounds < 1:
		return fmt.Errorf("%w: maxUnstakeRounds %d", ErrInvalidValue, c.MaxUnstakeRounds)
	case c.ConnectTimeout < 0, c.RequestTimeout < 0, c.DrainTimeout < 0, c.MaxBlockWait < 0:
		return fmt.Errorf("%w: negative timeout", ErrInvalidValue)
	}
	return nil
}

func (c *Config) GetLogLevel() logging.Level     { return c.LogLevel }
func (c *Config) GetByteOrder() chain.ByteOrder  { return c.byteOrder }
func (c *Config) GetTxsPerBlock() int            { return c.TxsPerBlock }
func (c *Config) GetInitialTempo() uint16        { return c.InitialTempo }
func (c *Config) GetMaxUnstakeRounds() int       { return c.MaxUnstakeRounds }
func (c *Config) GetMaxBlockWait() time.Duration { return c.MaxBlockWait }
func (c *Config) GetDrainTimeout() time.Duration { return c.DrainTimeout }
func (c *Config) GetEVMEndpoint() string         { return c.EVMEndpoint }
func (c *Config) GetSS58Format() uint16          { return c.SS58Format }
func (c *Config) GetCacheMetadata() bool         { return c.CacheMetadata }
func (c *Config) Loaded() bool                   { return c.loaded }
func (c *Config) GetArchiverConfig() *archiver.ORMArchiverConfig {
	return &c.ArchiverConfig
}
