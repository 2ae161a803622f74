package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
	"github.com/TriB-P/mediabox-sub008/internal/platform/awsclient"
)

// EnvPrefix prefixes every environment override, e.g. MEDIABOX_AWS_REGION.
const EnvPrefix = "MEDIABOX"

// Config holds application configuration.
type Config struct {
	AWS       AWSConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Breakdown BreakdownConfig
	Log       LogConfig
}

// AWSConfig holds SDK and S3 settings.
type AWSConfig struct {
	Profile  string
	Region   string
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix"`
}

// DatabaseConfig holds the RDS PostgreSQL settings. The password is an IAM
// token built at connect time and never configured.
type DatabaseConfig struct {
	Endpoint string
	Port     int
	User     string
	Name     string
	SSLMode  string `mapstructure:"ssl_mode"`

	// InstanceID looks the endpoint and port up through the RDS API.
	InstanceID string `mapstructure:"instance_id"`
}

// StorageConfig selects where breakdowns and tactic documents live.
type StorageConfig struct {
	// Backend is "aws" (RDS + S3) or "memory".
	Backend string
}

// BreakdownConfig holds editor settings.
type BreakdownConfig struct {
	Debounce time.Duration
	// MonthsShort overrides the month abbreviations, twelve comma separated
	// names starting with January.
	MonthsShort string `mapstructure:"months_short"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Debug bool
}

// Load reads configuration from file and env. The file is path when given,
// else $MEDIABOX_CONFIG, else config.yaml in the working directory or in
// ~/.config/mediabox. A missing default file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.region", "ca-central-1")
	v.SetDefault("aws.s3_bucket", "mediabox-tactics")
	v.SetDefault("aws.s3_prefix", "tactics")
	v.SetDefault("database.endpoint", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mediabox")
	v.SetDefault("database.name", "mediabox")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.instance_id", "")
	v.SetDefault("storage.backend", "aws")
	v.SetDefault("breakdown.debounce", 100*time.Millisecond)
	v.SetDefault("breakdown.months_short", "")
	v.SetDefault("log.debug", false)

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mediabox"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "aws", "memory":
	default:
		return fmt.Errorf("storage.backend %q must be aws or memory", c.Storage.Backend)
	}
	if c.Breakdown.Debounce < 0 {
		return fmt.Errorf("breakdown.debounce %s must not be negative", c.Breakdown.Debounce)
	}
	return nil
}

// AWSClientConfig maps the AWS and database sections onto the client config.
func (c Config) AWSClientConfig() *awsclient.Config {
	return &awsclient.Config{
		Profile:      c.AWS.Profile,
		Region:       c.AWS.Region,
		S3BucketName: c.AWS.S3Bucket,
		S3Prefix:     c.AWS.S3Prefix,
		DBEndpoint:   c.Database.Endpoint,
		DBPort:       c.Database.Port,
		DBUser:       c.Database.User,
		DBName:       c.Database.Name,
		DBSSLMode:    c.Database.SSLMode,
		DBInstanceID: c.Database.InstanceID,
	}
}

// Translator resolves the month list from MonthsShort. It is nil when no
// override is configured, which selects the built-in names.
func (c BreakdownConfig) Translator() domain.Translator {
	if strings.TrimSpace(c.MonthsShort) == "" {
		return nil
	}
	months := c.MonthsShort
	return func(key string) string {
		if key == domain.MonthsShortKey {
			return months
		}
		return key
	}
}
