package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/service/ldap"
	"github.com/urfave/cli/v3"
)

// Directory holds the LDAP connection settings
type Directory struct {
	url        string
	bindDN     string
	password   string
	searchBase string
	photoSize  string
}

func (x *Directory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "ldap-url",
			Usage:       "LDAP server URL (e.g. ldaps://dc.example.com:636)",
			Category:    "Directory",
			Sources:     cli.EnvVars("AD2IMAGE_LDAP_URL"),
			Destination: &x.url,
		},
		&cli.StringFlag{
			Name:        "ldap-bind-dn",
			Usage:       "DN to bind as (anonymous when empty)",
			Category:    "Directory",
			Sources:     cli.EnvVars("AD2IMAGE_LDAP_BIND_DN"),
			Destination: &x.bindDN,
		},
		&cli.StringFlag{
			Name:        "ldap-password",
			Usage:       "Password for the bind DN",
			Category:    "Directory",
			Sources:     cli.EnvVars("AD2IMAGE_LDAP_PASSWORD"),
			Destination: &x.password,
		},
		&cli.StringFlag{
			Name:        "ldap-search-base",
			Usage:       "Base DN for user searches",
			Category:    "Directory",
			Sources:     cli.EnvVars("AD2IMAGE_LDAP_SEARCH_BASE"),
			Destination: &x.searchBase,
		},
		&cli.StringFlag{
			Name:        "ldap-photo-size",
			Usage:       "Pixel size of the photo stored in the directory; other sizes are fetched remotely",
			Category:    "Directory",
			Value:       types.DefaultImageSize().String(),
			Sources:     cli.EnvVars("AD2IMAGE_LDAP_PHOTO_SIZE"),
			Destination: &x.photoSize,
		},
	}
}

func (x Directory) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.url),
		slog.String("bind_dn", x.bindDN),
		slog.Int("password.len", len(x.password)),
		slog.String("search_base", x.searchBase),
		slog.String("photo_size", x.photoSize),
	)
}

// Validate checks required flags without connecting
func (x *Directory) Validate() error {
	if x.url == "" {
		return goerr.Wrap(ErrMissingFlag, "LDAP URL is required", goerr.V(FlagKey, "ldap-url"))
	}
	if x.searchBase == "" {
		return goerr.Wrap(ErrMissingFlag, "LDAP search base is required", goerr.V(FlagKey, "ldap-search-base"))
	}
	if _, err := x.PhotoSize(); err != nil {
		return err
	}
	return nil
}

// PhotoSize returns the size of the directory photo attribute. Empty means
// the built-in default.
func (x *Directory) PhotoSize() (types.ImageSize, error) {
	if x.photoSize == "" {
		return types.DefaultImageSize(), nil
	}
	size, ok := types.ParseImageSize(x.photoSize)
	if !ok {
		return 0, goerr.Wrap(ErrInvalidImageSize, "unsupported LDAP photo size",
			goerr.V(FlagKey, "ldap-photo-size"),
			goerr.V("value", x.photoSize))
	}
	return size, nil
}

// Configure builds the directory client. A nil app config uses the
// built-in attribute mapping.
func (x *Directory) Configure(app *AppConfig) (*ldap.Client, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}
	if app == nil {
		app = DefaultAppConfig()
	}

	client, err := ldap.New(ldap.Config{
		URL:              x.url,
		BindDN:           x.bindDN,
		Password:         x.password,
		SearchBase:       x.searchBase,
		UIDAttribute:     app.Directory.UIDAttribute,
		MailAttribute:    app.Directory.MailAttribute,
		PhotoAttribute:   app.Directory.PhotoAttribute,
		UserSearchFilter: app.Directory.UserSearchFilter,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create directory client")
	}
	return client, nil
}
