package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/service/worker"
	"github.com/secmon-lab/ad2image/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Gravatar controls the email hash index and its endpoint
type Gravatar struct {
	enabled     bool
	filter      string
	pageSize    int
	refreshCron string
}

func (x *Gravatar) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "gravatar",
			Usage:       "Serve avatars by email hash at /gravatar/{hash}",
			Category:    "Gravatar",
			Sources:     cli.EnvVars("AD2IMAGE_GRAVATAR"),
			Destination: &x.enabled,
		},
		&cli.StringFlag{
			Name:        "gravatar-filter",
			Usage:       "LDAP filter selecting users for the hash index",
			Category:    "Gravatar",
			Value:       usecase.DefaultHashIndexFilter,
			Sources:     cli.EnvVars("AD2IMAGE_GRAVATAR_FILTER"),
			Destination: &x.filter,
		},
		&cli.IntFlag{
			Name:        "gravatar-page-size",
			Usage:       "Page size of the directory scan",
			Category:    "Gravatar",
			Value:       usecase.DefaultHashIndexPageSize,
			Sources:     cli.EnvVars("AD2IMAGE_GRAVATAR_PAGE_SIZE"),
			Destination: &x.pageSize,
		},
		&cli.StringFlag{
			Name:        "gravatar-refresh-cron",
			Usage:       "Cron schedule to refresh the hash index, \"-\" to disable (e.g. \"0 */30 * * * *\")",
			Category:    "Gravatar",
			Value:       worker.DisabledSchedule,
			Sources:     cli.EnvVars("AD2IMAGE_GRAVATAR_REFRESH_CRON"),
			Destination: &x.refreshCron,
		},
	}
}

func (x Gravatar) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.enabled),
		slog.String("filter", x.filter),
		slog.Int("page_size", x.pageSize),
		slog.String("refresh_cron", x.refreshCron),
	)
}

func (x *Gravatar) Enabled() bool {
	return x.enabled
}

// RefreshSchedule returns the cron expression for the refresh worker
func (x *Gravatar) RefreshSchedule() string {
	return x.refreshCron
}

// Validate checks the page size and the refresh schedule
func (x *Gravatar) Validate() error {
	if x.pageSize <= 0 {
		return goerr.Wrap(ErrInvalidPageSize, "invalid gravatar page size", goerr.V("page_size", x.pageSize))
	}
	if _, err := worker.ParseSchedule(x.refreshCron); err != nil {
		return goerr.Wrap(ErrInvalidSchedule, "invalid gravatar refresh schedule",
			goerr.V("schedule", x.refreshCron),
			goerr.V("error", err.Error()))
	}
	return nil
}

// HashIndexOptions returns the options for usecase.HashIndex
func (x *Gravatar) HashIndexOptions() []usecase.HashIndexOption {
	opts := []usecase.HashIndexOption{
		usecase.WithHashIndexPageSize(x.pageSize),
	}
	if x.filter != "" {
		opts = append(opts, usecase.WithHashIndexFilter(x.filter))
	}
	return opts
}
