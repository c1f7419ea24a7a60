package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/service/photo"
	"github.com/urfave/cli/v3"
)

// Photo holds the remote photo service settings
type Photo struct {
	url      string
	username string
	password string
	timeout  time.Duration
}

func (x *Photo) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "ews-url",
			Usage:       "Base URL of the Exchange Web Services endpoint (e.g. https://mail.example.com/ews/Exchange.asmx)",
			Category:    "Remote Photo",
			Sources:     cli.EnvVars("AD2IMAGE_EWS_URL"),
			Destination: &x.url,
		},
		&cli.StringFlag{
			Name:        "ews-username",
			Usage:       "Username for the photo service",
			Category:    "Remote Photo",
			Sources:     cli.EnvVars("AD2IMAGE_EWS_USERNAME"),
			Destination: &x.username,
		},
		&cli.StringFlag{
			Name:        "ews-password",
			Usage:       "Password for the photo service",
			Category:    "Remote Photo",
			Sources:     cli.EnvVars("AD2IMAGE_EWS_PASSWORD"),
			Destination: &x.password,
		},
		&cli.DurationFlag{
			Name:        "ews-timeout",
			Usage:       "Timeout of a single photo request",
			Category:    "Remote Photo",
			Value:       photo.DefaultTimeout,
			Sources:     cli.EnvVars("AD2IMAGE_EWS_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x Photo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.url),
		slog.String("username", x.username),
		slog.Int("password.len", len(x.password)),
		slog.Duration("timeout", x.timeout),
	)
}

// Configure builds the remote photo client
func (x *Photo) Configure() (*photo.Client, error) {
	if x.url == "" {
		return nil, goerr.Wrap(ErrMissingFlag, "photo service URL is required", goerr.V(FlagKey, "ews-url"))
	}

	opts := []photo.Option{}
	if x.timeout > 0 {
		opts = append(opts, photo.WithTimeout(x.timeout))
	}
	if x.username != "" {
		opts = append(opts, photo.WithBasicAuth(x.username, x.password))
	}

	client, err := photo.New(x.url, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create photo client")
	}
	return client, nil
}
