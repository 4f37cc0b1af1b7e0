// Package settings resolves the CLI configuration.
//
// Precedence, highest first: explicit flags (applied by the caller),
// RCONSOLE_* environment variables, variables from a .env file, the
// rconsole.yaml config file, built-in defaults.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/rconsole/internal/endpoint"
)

// EnvPrefix prefixes every environment variable, e.g. RCONSOLE_API_URL.
const EnvPrefix = "RCONSOLE"

// Keys understood in rconsole.yaml.
const (
	KeyAPIURL      = "api.url"
	KeyAPIBase     = "api.base"
	KeyAPIOrigin   = "api.origin"
	KeyToken       = "token"
	KeyTokenFile   = "token_file"
	KeyProduction  = "production"
	KeySection     = "section"
	KeyJournalPath = "journal.path"
	KeyLogLevel    = "log.level"
	KeyLogFile     = "log.file"
	KeyTimeout     = "timeout"
)

// Settings is the resolved configuration.
type Settings struct {
	APIURL      string        `json:"api_url"`
	Base        string        `json:"api_base"`
	Origin      string        `json:"api_origin"`
	Token       string        `json:"-"`
	TokenFile   string        `json:"token_file,omitempty"`
	Production  bool          `json:"production"`
	Section     string        `json:"section"`
	JournalPath string        `json:"journal_path,omitempty"`
	LogLevel    string        `json:"log_level"`
	LogFile     string        `json:"log_file,omitempty"`
	Timeout     time.Duration `json:"timeout"`

	// ConfigFile is the file that was read, or "" if none was found.
	ConfigFile string `json:"config_file,omitempty"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config path. Missing explicit files are an error.
	ConfigFile string
	// EnvFile is the .env path. Default: ".env". Missing files are ignored.
	EnvFile string
	// SearchPaths overrides the config search path.
	SearchPaths []string
}

// DefaultSearchPaths returns $XDG_CONFIG_HOME/rconsole (or the OS equivalent)
// followed by the working directory.
func DefaultSearchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "rconsole"))
	}
	return append(paths, ".")
}

// Load resolves settings.
func Load(opts Options) (Settings, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv.Load never overrides variables already set in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyAPIBase, endpoint.DefaultBase)
	v.SetDefault(KeyAPIOrigin, "http://localhost")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyTokenFile, "")
	v.SetDefault(KeyProduction, false)
	v.SetDefault(KeySection, "")
	v.SetDefault(KeyJournalPath, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTimeout, 15*time.Second)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("rconsole")
		paths := opts.SearchPaths
		if paths == nil {
			paths = DefaultSearchPaths()
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Settings{
		APIURL:      v.GetString(KeyAPIURL),
		Base:        v.GetString(KeyAPIBase),
		Origin:      v.GetString(KeyAPIOrigin),
		Token:       v.GetString(KeyToken),
		TokenFile:   v.GetString(KeyTokenFile),
		Production:  v.GetBool(KeyProduction),
		Section:     v.GetString(KeySection),
		JournalPath: v.GetString(KeyJournalPath),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFile:     v.GetString(KeyLogFile),
		Timeout:     v.GetDuration(KeyTimeout),
		ConfigFile:  v.ConfigFileUsed(),
	}

	if s.Token == "" && s.TokenFile != "" {
		token, err := ReadToken(s.TokenFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, err
		}
		s.Token = token
	}

	return s, nil
}

// ReadToken reads a token file, trimming surrounding whitespace.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
