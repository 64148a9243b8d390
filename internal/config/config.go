package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pders01/ggr/internal/gerrit"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file searched for in the working directory and
	// its parents
	FileName = ".ggr.conf"
	// EnvPrefix prefixes environment overrides, e.g. GGR_PASSWORD
	EnvPrefix = "GGR"

	DefaultPort    = 80
	DefaultTimeout = 30 * time.Second
)

var ErrNotFound = errors.New("config file not found")

// Config holds the Gerrit connection settings
type Config struct {
	Scheme   string        `mapstructure:"scheme"`
	Base     string        `mapstructure:"base"`
	Port     int           `mapstructure:"port"`
	Appendix string        `mapstructure:"appendix"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	// Root claims the directory holding the config file as the superproject
	Root    bool          `mapstructure:"root"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Setup prepares v for reading a TOML config file with GGR_ environment
// overrides.
func Setup(v *viper.Viper) {
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	SetDefaults(v)
}

// SetDefaults registers every key, so environment overrides apply even when
// the file does not set them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scheme", "")
	v.SetDefault("base", "")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("appendix", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("root", true)
	v.SetDefault("timeout", DefaultTimeout)
}

// Load returns the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &c, nil
}

// Discover searches dir and every parent of it for a file called name and
// returns its path.
func Discover(dir, name string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for d := start; ; {
		candidate := filepath.Join(d, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return "", fmt.Errorf("conf file %s in %s and all parent directories: %w", name, start, ErrNotFound)
}

// IsValid reports whether scheme and base are set. Nothing can be queried
// without them.
func (c *Config) IsValid() bool {
	return c.Scheme != "" && c.Base != ""
}

// BaseURL returns scheme://base:port/ with the appendix path, if any, and a
// trailing slash.
func (c *Config) BaseURL() string {
	url := fmt.Sprintf("%s://%s:%d/", c.Scheme, c.Base, c.Port)
	if appendix := strings.Trim(c.Appendix, "/"); appendix != "" {
		url += appendix + "/"
	}
	return url
}

// Credentials returns the Gerrit login
func (c *Config) Credentials() gerrit.Credentials {
	return gerrit.Credentials{Username: c.Username, Password: c.Password}
}

// SuperprojectDir returns the directory the config claims as superproject,
// or "" when root is off or no file was read.
func (c *Config) SuperprojectDir(configFile string) string {
	if !c.Root || configFile == "" {
		return ""
	}
	return filepath.Dir(configFile)
}

// String lists the configuration. The password is masked.
func (c *Config) String() string {
	pass := ""
	if c.Password != "" {
		pass = "********"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "* url ......... : %s://%s:%d/%s\n", c.Scheme, c.Base, c.Port, c.Appendix)
	fmt.Fprintf(&sb, "  user/pass ... : %s / %q\n", c.Username, pass)
	fmt.Fprintf(&sb, "  root ........ : %t\n", c.Root)
	fmt.Fprintf(&sb, "  timeout ..... : %s", c.Timeout)
	return sb.String()
}

// fileTemplate is what `config init` writes
type fileTemplate struct {
	Scheme   string `toml:"scheme"`
	Base     string `toml:"base"`
	Port     int    `toml:"port"`
	Appendix string `toml:"appendix"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Root     bool   `toml:"root"`
	Timeout  string `toml:"timeout"`
}

// WriteTemplate writes a config file with default values to path. An
// existing file is only replaced with force.
func WriteTemplate(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists (use --force to overwrite): %w", path, err)
		}
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	tmpl := fileTemplate{
		Scheme:  "https",
		Base:    "gerrit.example.com",
		Port:    443,
		Root:    true,
		Timeout: DefaultTimeout.String(),
	}
	if err := toml.NewEncoder(f).Encode(tmpl); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
