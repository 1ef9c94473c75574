package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Draw     DrawConfig
	Payout   PayoutConfig
	Rewards  RewardsConfig
	Redis    RedisConfig
	Alert    AlertConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
	Issuer    string
}

// AuthConfig holds the bcrypt hash of the operator key used to obtain tokens
type AuthConfig struct {
	OperatorKeyHash string
}

// DrawConfig holds prize-draw policy and timeouts
type DrawConfig struct {
	Enabled        bool // default for scheduled draws until an operator overrides it
	Schedule       string
	PrizeFraction  float64
	RankingTimeout time.Duration
	OracleTimeout  time.Duration
	PayoutTimeout  time.Duration
	LedgerTimeout  time.Duration
	LockTTL        time.Duration
	ExplorerTxBase string
	RandomSeed     int64 // 0 means seeded from crypto/rand
}

// PayoutConfig holds payout signer configuration
type PayoutConfig struct {
	BaseURL string
	APIKey  string
	MockAPI bool
}

// RewardsConfig holds rewards pool oracle configuration
type RewardsConfig struct {
	RPCEndpoint string
	PoolWallet  string
	MockAPI     bool
	MockPoolSOL float64
}

// RedisConfig enables the cross-instance slot lock when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AlertConfig holds the operator alert webhook
type AlertConfig struct {
	WebhookURL string
}

// LoadConfig loads configuration from a config file in path (optional) and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(path + "/config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read configuration
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal configuration
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "leaderboard")
	v.SetDefault("MongoDB.Timeout", 10*time.Second)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 60*60) // 1 hour
	v.SetDefault("JWT.Issuer", "leaderboard-draw")
	v.SetDefault("Auth.OperatorKeyHash", "")
	v.SetDefault("Draw.Enabled", false)
	v.SetDefault("Draw.Schedule", "0 */2 * * *")
	v.SetDefault("Draw.PrizeFraction", 0.10)
	v.SetDefault("Draw.RankingTimeout", 5*time.Second)
	v.SetDefault("Draw.OracleTimeout", 5*time.Second)
	v.SetDefault("Draw.PayoutTimeout", 10*time.Second)
	v.SetDefault("Draw.LedgerTimeout", 5*time.Second)
	v.SetDefault("Draw.LockTTL", 30*time.Second)
	v.SetDefault("Draw.ExplorerTxBase", "https://solscan.io/tx")
	v.SetDefault("Draw.RandomSeed", 0)
	v.SetDefault("Payout.BaseURL", "")
	v.SetDefault("Payout.APIKey", "")
	v.SetDefault("Payout.MockAPI", false)
	v.SetDefault("Rewards.RPCEndpoint", "https://api.mainnet-beta.solana.com")
	v.SetDefault("Rewards.PoolWallet", "")
	v.SetDefault("Rewards.MockAPI", false)
	v.SetDefault("Rewards.MockPoolSOL", 0)
	v.SetDefault("Redis.Addr", "")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("Alert.WebhookURL", "")
	v.SetDefault("LogLevel", "info")
}

// Validate reports configuration faults. Any error here must stop the process
// before the scheduler starts.
func (c *Config) Validate() error {
	var errs []error
	if c.MongoDB.URI == "" {
		errs = append(errs, errors.New("MongoDB.URI is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT.Secret is required"))
	}
	if c.Auth.OperatorKeyHash == "" {
		errs = append(errs, errors.New("Auth.OperatorKeyHash is required"))
	}
	if c.Draw.PrizeFraction <= 0 || c.Draw.PrizeFraction > 1 {
		errs = append(errs, fmt.Errorf("Draw.PrizeFraction must be in (0, 1], got %v", c.Draw.PrizeFraction))
	}
	for name, d := range map[string]time.Duration{
		"Draw.RankingTimeout": c.Draw.RankingTimeout,
		"Draw.OracleTimeout":  c.Draw.OracleTimeout,
		"Draw.PayoutTimeout":  c.Draw.PayoutTimeout,
		"Draw.LedgerTimeout":  c.Draw.LedgerTimeout,
		"Draw.LockTTL":        c.Draw.LockTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if !c.Payout.MockAPI {
		if c.Payout.BaseURL == "" {
			errs = append(errs, errors.New("Payout.BaseURL is required"))
		}
		if c.Payout.APIKey == "" {
			errs = append(errs, errors.New("Payout.APIKey (payout credential) is required"))
		}
	}
	if !c.Rewards.MockAPI && c.Rewards.PoolWallet == "" {
		errs = append(errs, errors.New("Rewards.PoolWallet is required"))
	}
	return errors.Join(errs...)
}
