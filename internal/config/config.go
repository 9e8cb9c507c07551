package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/namedfork/mfsfuse-go/internal/credentials"
	"github.com/namedfork/mfsfuse-go/internal/logger"
	"github.com/namedfork/mfsfuse-go/internal/storage"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "mfsfuse"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "MFSFUSE"
)

// Config holds the application configuration
type Config struct {
	Folders   bool   `mapstructure:"folders"`
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	Source struct {
		Type string `mapstructure:"type"` // file, s3, postgres, mongodb
	} `mapstructure:"source"`

	File struct {
		Root string `mapstructure:"root"` // resolves relative image names
	} `mapstructure:"file"`

	S3 struct {
		Bucket     string `mapstructure:"bucket"`
		Region     string `mapstructure:"region"`
		Endpoint   string `mapstructure:"endpoint"` // For S3-compatible storage
		AccessKey  string `mapstructure:"access_key"`
		SecretKey  string `mapstructure:"secret_key"`
		PasswdFile string `mapstructure:"passwd_file"`
	} `mapstructure:"s3"`

	Postgres struct {
		DSN    string `mapstructure:"dsn"`
		Table  string `mapstructure:"table"`
		Bucket string `mapstructure:"bucket"`
	} `mapstructure:"postgres"`

	MongoDB struct {
		URI        string `mapstructure:"uri"`
		Database   string `mapstructure:"database"`
		Collection string `mapstructure:"collection"`
		Bucket     string `mapstructure:"bucket"`
	} `mapstructure:"mongodb"`

	Cache struct {
		PageSize int64 `mapstructure:"page_size"`
		MaxPages int   `mapstructure:"max_pages"`
	} `mapstructure:"cache"`

	Mount struct {
		AllowOther bool   `mapstructure:"allow_other"`
		FSName     string `mapstructure:"fsname"`
	} `mapstructure:"mount"`

	// ConfigFile is the config file that was read, empty when none was found
	ConfigFile string `mapstructure:"-"`
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"folders":    "folders",
	"debug":      "debug",
	"log-format": "log_format",
	"log-file":   "log_file",
	"source":     "source.type",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("folders", false)
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")
	v.SetDefault("source.type", string(storage.BackendTypeFile))
	v.SetDefault("file.root", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.passwd_file", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.table", "images")
	v.SetDefault("postgres.bucket", "default")
	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", AppName)
	v.SetDefault("mongodb.collection", "images")
	v.SetDefault("mongodb.bucket", "default")
	v.SetDefault("cache.page_size", 64*1024)
	v.SetDefault("cache.max_pages", 256)
	v.SetDefault("mount.allow_other", false)
	v.SetDefault("mount.fsname", "mfs")
}

func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", AppName))
	}
	v.AddConfigPath(filepath.Join("/etc", AppName))
}

// Load reads configuration from defaults, an optional YAML file, the
// environment and, when flags is non-nil, explicitly set flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	file := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		file = v.ConfigFileUsed()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.ConfigFile = file
	return cfg, cfg.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch storage.BackendType(c.Source.Type) {
	case storage.BackendTypeFile, storage.BackendTypeS3, storage.BackendTypePostgres, storage.BackendTypeMongoDB:
	default:
		return fmt.Errorf("unknown source type %q", c.Source.Type)
	}
	switch c.LogFormat {
	case "human", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Cache.PageSize < 512 {
		return fmt.Errorf("cache.page_size must be at least 512, got %d", c.Cache.PageSize)
	}
	if c.Cache.MaxPages < 1 {
		return fmt.Errorf("cache.max_pages must be positive, got %d", c.Cache.MaxPages)
	}
	return nil
}

// LoggerConfig returns the logger settings
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{Debug: c.Debug, Format: c.LogFormat, File: c.LogFile}
}

// CacheConfig returns the page cache settings
func (c *Config) CacheConfig() storage.CacheConfig {
	return storage.CacheConfig{PageSize: c.Cache.PageSize, MaxPages: c.Cache.MaxPages}
}

// S3Credentials resolves S3 keys from, in order, the config values, the
// passwd file and the environment. Nil means the SDK default chain.
func (c *Config) S3Credentials() (*credentials.Credentials, error) {
	creds := credentials.NewCredentials()
	creds.Region = c.S3.Region
	if c.S3.AccessKey != "" || c.S3.SecretKey != "" {
		creds.AccessKeyID = c.S3.AccessKey
		creds.SecretAccessKey = c.S3.SecretKey
		if !creds.IsValid() {
			return nil, fmt.Errorf("s3.access_key and s3.secret_key must both be set")
		}
		return creds, nil
	}
	if c.S3.PasswdFile != "" {
		if err := creds.LoadFromPasswdFile(c.S3.PasswdFile, c.S3.Bucket); err != nil {
			return nil, err
		}
		return creds, nil
	}
	if err := creds.LoadFromEnvironment(); err == nil {
		return creds, nil
	}
	return nil, nil
}

// StorageConfig returns the backend settings
func (c *Config) StorageConfig() (storage.Config, error) {
	sc := storage.Config{
		Type:            storage.BackendType(c.Source.Type),
		FileRoot:        c.File.Root,
		S3Bucket:        c.S3.Bucket,
		S3Region:        c.S3.Region,
		S3Endpoint:      c.S3.Endpoint,
		PostgresConnStr: c.Postgres.DSN,
		PostgresTable:   c.Postgres.Table,
		PostgresBucket:  c.Postgres.Bucket,
		MongoURI:        c.MongoDB.URI,
		MongoDatabase:   c.MongoDB.Database,
		MongoCollection: c.MongoDB.Collection,
		MongoBucket:     c.MongoDB.Bucket,
	}
	if sc.Type == storage.BackendTypeS3 {
		creds, err := c.S3Credentials()
		if err != nil {
			return sc, err
		}
		sc.S3Credentials = creds
	}
	return sc, nil
}
