package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/ad2image/pkg/service/ldap"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the optional TOML configuration file
type AppConfig struct {
	Directory DirectoryMapping `toml:"directory"`
}

// DirectoryMapping describes how user entries are looked up and read
type DirectoryMapping struct {
	UIDAttribute     string `toml:"uid_attribute"`
	MailAttribute    string `toml:"mail_attribute"`
	PhotoAttribute   string `toml:"photo_attribute"`
	UserSearchFilter string `toml:"user_search_filter"`
}

// DefaultAppConfig returns the configuration used when no file is given
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Directory: DirectoryMapping{
			UIDAttribute:     ldap.DefaultUIDAttribute,
			MailAttribute:    ldap.DefaultMailAttribute,
			PhotoAttribute:   ldap.DefaultPhotoAttribute,
			UserSearchFilter: ldap.DefaultUserSearchFilter,
		},
	}
}

// Validate checks if the DirectoryMapping is valid
func (d *DirectoryMapping) Validate() error {
	attrs := []struct {
		name  string
		value string
	}{
		{"uid_attribute", d.UIDAttribute},
		{"mail_attribute", d.MailAttribute},
		{"photo_attribute", d.PhotoAttribute},
	}
	for _, attr := range attrs {
		if strings.TrimSpace(attr.value) == "" {
			return goerr.Wrap(ErrMissingAttribute, "directory attribute is empty",
				goerr.V(FieldKey, attr.name))
		}
	}

	filter := strings.TrimSpace(d.UserSearchFilter)
	if !strings.Contains(filter, ldap.UIDPlaceholder) {
		return goerr.Wrap(ErrInvalidFilter, "user search filter must contain uid placeholder",
			goerr.V(FilterKey, d.UserSearchFilter),
			goerr.V("placeholder", ldap.UIDPlaceholder))
	}
	if !strings.HasPrefix(filter, "(") || !strings.HasSuffix(filter, ")") {
		return goerr.Wrap(ErrInvalidFilter, "user search filter must be parenthesized",
			goerr.V(FilterKey, d.UserSearchFilter))
	}

	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if err := a.Directory.Validate(); err != nil {
		return goerr.Wrap(err, "invalid directory section")
	}
	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file.
// Keys missing from the file keep their defaults.
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "failed to read config file", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultAppConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return config, nil
}

// AppFile is the --config flag pointing at an optional TOML file
type AppFile struct {
	path string
}

func (x *AppFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file (built-in directory mapping when omitted)",
			Sources:     cli.EnvVars("AD2IMAGE_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Path returns the configured file path, empty when unset
func (x *AppFile) Path() string {
	return x.path
}

// Load reads the configuration file, or returns the defaults when no path is set
func (x *AppFile) Load() (*AppConfig, error) {
	if x.path == "" {
		return DefaultAppConfig(), nil
	}
	return LoadAppConfiguration(x.path)
}
