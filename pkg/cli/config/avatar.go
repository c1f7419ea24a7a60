package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Avatar holds resolution defaults
type Avatar struct {
	defaultMode string
}

func (x *Avatar) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "default-mode",
			Usage:       "Mode used when a request has no valid mode [404|fallbackGeneric|fallbackIdenticon|fallbackGithub|fallbackSquare|fallbackTriangle|generic|identicon|github|square|triangle]",
			Category:    "Avatar",
			Value:       types.ModeFallbackGeneric.String(),
			Sources:     cli.EnvVars("AD2IMAGE_DEFAULT_MODE"),
			Destination: &x.defaultMode,
		},
	}
}

func (x Avatar) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("default_mode", x.defaultMode),
	)
}

// DefaultMode returns the validated default mode, matched case-insensitively
func (x *Avatar) DefaultMode() (types.Mode, error) {
	mode := types.ParseMode(x.defaultMode, "")
	if mode == "" {
		return "", goerr.Wrap(ErrInvalidMode, "unknown default mode", goerr.V("mode", x.defaultMode))
	}
	return mode, nil
}
