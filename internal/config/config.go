package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName   = "tsdctl"
	envPrefix = "TSDCTL"
)

// Configuration keys
const (
	KeyBinary      = "tsd.binary"
	KeyInterval    = "progress.interval"
	KeyCatalogPath = "catalog.path"
	KeyHistoryPath = "history.path"
	KeyDebug       = "debug"
)

var appDir = ""

func init() {
	if appDir = os.Getenv("TSDCTL_HOME"); appDir == "" {
		dataDir, err := os.UserCacheDir()
		cobra.CheckErr(err)

		appDir = filepath.Join(dataDir, appName)
	}
}

// Config is the resolved runtime configuration.
type Config struct {
	Binary      string
	Interval    time.Duration
	CatalogPath string
	HistoryPath string
	Debug       bool
}

func GetApplicationDirectory() string {
	return appDir
}

// New returns a viper instance with defaults and environment binding.
// Environment variables use the TSDCTL_ prefix, e.g. TSDCTL_TSD_BINARY.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)

	v.SetDefault(KeyBinary, "")
	v.SetDefault(KeyInterval, 500*time.Millisecond)
	v.SetDefault(KeyCatalogPath, filepath.Join(appDir, fmt.Sprintf("%s.bolt", appName)))
	v.SetDefault(KeyHistoryPath, filepath.Join(appDir, "history.db"))
	v.SetDefault(KeyDebug, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and returns the resolved Config.
// An empty file means <appdir>/config.yaml, which may be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(appDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Binary:      v.GetString(KeyBinary),
		Interval:    v.GetDuration(KeyInterval),
		CatalogPath: v.GetString(KeyCatalogPath),
		HistoryPath: v.GetString(KeyHistoryPath),
		Debug:       v.GetBool(KeyDebug),
	}

	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("invalid %s: %s", KeyInterval, cfg.Interval)
	}

	return cfg, nil
}

// EnsureDirs creates the parent directories of the database files.
func (c *Config) EnsureDirs(fs afero.Fs) error {
	for _, p := range []string{c.CatalogPath, c.HistoryPath} {
		if p == "" {
			continue
		}

		if err := fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	return nil
}
