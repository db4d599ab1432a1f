package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"crowdledger/core/types"
)

// Config carries the daemon's runtime settings.
type Config struct {
	RPCAddress              string `toml:"RPCAddress"`
	DataDir                 string `toml:"DataDir"`
	NetworkName             string `toml:"NetworkName"`
	GenesisTimestamp        int64  `toml:"GenesisTimestamp"`
	AdminAddress            string `toml:"AdminAddress"`
	FeeVaultAddress         string `toml:"FeeVaultAddress"`
	LogFile                 string `toml:"LogFile"`
	SnapshotIntervalSeconds int64  `toml:"SnapshotIntervalSeconds"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8661"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "crowdledger-local"
	}
	if c.SnapshotIntervalSeconds <= 0 {
		c.SnapshotIntervalSeconds = 300
	}
}

// Validate checks that configured addresses parse and the genesis stamp is set.
func (c *Config) Validate() error {
	if c.GenesisTimestamp <= 0 {
		return fmt.Errorf("config: GenesisTimestamp must be positive")
	}
	if !common.IsHexAddress(c.AdminAddress) {
		return fmt.Errorf("config: AdminAddress %q is not a valid address", c.AdminAddress)
	}
	if !common.IsHexAddress(c.FeeVaultAddress) {
		return fmt.Errorf("config: FeeVaultAddress %q is not a valid address", c.FeeVaultAddress)
	}
	return nil
}

// Admin returns the parsed administrator address.
func (c *Config) Admin() types.Address {
	return common.HexToAddress(c.AdminAddress)
}

// FeeVault returns the parsed fee collection address.
func (c *Config) FeeVault() types.Address {
	return common.HexToAddress(c.FeeVaultAddress)
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		GenesisTimestamp: 1_700_000_000,
		AdminAddress:     "0x0000000000000000000000000000000000000001",
		FeeVaultAddress:  "0x00000000000000000000000000000000000000fe",
	}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
