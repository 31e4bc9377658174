package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/simaogato/taxline-backend/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. TAXLINE_DATABASE_SOURCE
const EnvPrefix = "TAXLINE"

// Config holds the server configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Log        LogConfig
	Currencies []domain.Currency
}

// ServerConfig holds listener addresses
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

// DatabaseConfig holds the postgres connection string
type DatabaseConfig struct {
	Source string
}

// AuthConfig holds the static API token checked by the gRPC interceptor
type AuthConfig struct {
	APIToken string
}

// LogConfig selects the slog level
type LogConfig struct {
	Level string
}

// Load reads the configuration from path (optional) and TAXLINE_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("database.source", "host=localhost port=5432 user=postgres password=postgres dbname=taxline sslmode=disable")
	v.SetDefault("auth.api_token", "dev-token")
	v.SetDefault("log.level", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			GRPCAddr:    v.GetString("server.grpc_addr"),
			MetricsAddr: v.GetString("server.metrics_addr"),
		},
		Database: DatabaseConfig{Source: v.GetString("database.source")},
		Auth:     AuthConfig{APIToken: v.GetString("auth.api_token")},
		Log:      LogConfig{Level: v.GetString("log.level")},
	}

	currencies, err := currenciesFrom(v.GetStringMap("currencies"))
	if err != nil {
		return nil, err
	}
	cfg.Currencies = currencies

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// currenciesFrom reads a code -> precision map; an empty map yields the defaults
func currenciesFrom(raw map[string]interface{}) ([]domain.Currency, error) {
	if len(raw) == 0 {
		return domain.DefaultCurrencies(), nil
	}

	currencies := make([]domain.Currency, 0, len(raw))
	for code, value := range raw {
		precision, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("currency %s: precision %v is not an integer", code, value)
		}
		c := domain.Currency{Code: strings.ToUpper(code), Precision: int32(precision)}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("currency %s: %w", code, err)
		}
		currencies = append(currencies, c)
	}

	sort.Slice(currencies, func(i, j int) bool {
		return currencies[i].Code < currencies[j].Code
	})
	return currencies, nil
}

func toInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	if c.Server.GRPCAddr == "" {
		return errors.New("server.grpc_addr must not be empty")
	}
	if c.Database.Source == "" {
		return errors.New("database.source must not be empty")
	}
	if c.Auth.APIToken == "" {
		return errors.New("auth.api_token must not be empty")
	}
	return nil
}
