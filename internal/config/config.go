package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration struct
type Config struct {
	RPC      RPCConfig      `mapstructure:"rpc"`
	Session  SessionConfig  `mapstructure:"session"`
	Delegate DelegateConfig `mapstructure:"delegate"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// RPCConfig holds the endpoints of the two ledgers
type RPCConfig struct {
	BaseEndpoint      string `mapstructure:"baseEndpoint"`
	EphemeralEndpoint string `mapstructure:"ephemeralEndpoint"`
	ValidatorHint     string `mapstructure:"validatorHint"`
}

// SessionConfig holds session credential settings
type SessionConfig struct {
	Salt               string        `mapstructure:"salt"`
	WalletPath         string        `mapstructure:"walletPath"`
	StorePath          string        `mapstructure:"storePath"`
	FundLamports       uint64        `mapstructure:"fundLamports"`
	MinBalanceLamports uint64        `mapstructure:"minBalanceLamports"`
	TTL                time.Duration `mapstructure:"ttl"`
}

// DelegateConfig holds shard delegation cost estimates and retry settings
type DelegateConfig struct {
	RentLamports        uint64        `mapstructure:"rentLamports"`
	TxFeeLamports       uint64        `mapstructure:"txFeeLamports"`
	DelegateFeeLamports uint64        `mapstructure:"delegateFeeLamports"`
	SettleDelay         time.Duration `mapstructure:"settleDelay"`
	PollInterval        time.Duration `mapstructure:"pollInterval"`
	PollAttempts        int           `mapstructure:"pollAttempts"`
	RetryStep           time.Duration `mapstructure:"retryStep"`
	MaxAttempts         int           `mapstructure:"maxAttempts"`
}

// SubmitConfig holds transaction submission settings
type SubmitConfig struct {
	MessageVersion string        `mapstructure:"messageVersion"`
	ConfirmTimeout time.Duration `mapstructure:"confirmTimeout"`
}

// MetricsConfig holds the Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Load reads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("rpc.baseEndpoint", "https://api.devnet.solana.com")
	v.SetDefault("rpc.ephemeralEndpoint", "https://devnet.magicblock.app")
	v.SetDefault("rpc.validatorHint", "")
	v.SetDefault("session.salt", "magicplace-session-v1")
	v.SetDefault("session.walletPath", "")
	v.SetDefault("session.storePath", "")
	v.SetDefault("session.fundLamports", uint64(100_000_000))
	v.SetDefault("session.minBalanceLamports", uint64(10_000_000))
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("delegate.rentLamports", uint64(60_000_000))
	v.SetDefault("delegate.txFeeLamports", uint64(500_000))
	v.SetDefault("delegate.delegateFeeLamports", uint64(1_000_000))
	v.SetDefault("delegate.settleDelay", 2*time.Second)
	v.SetDefault("delegate.pollInterval", time.Second)
	v.SetDefault("delegate.pollAttempts", 10)
	v.SetDefault("delegate.retryStep", 2*time.Second)
	v.SetDefault("delegate.maxAttempts", 3)
	v.SetDefault("submit.messageVersion", "legacy")
	v.SetDefault("submit.confirmTimeout", 60*time.Second)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9091")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
