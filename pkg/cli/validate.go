package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/cli/config"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appFile config.AppFile
	var dirCfg config.Directory

	var flags []cli.Flag
	flags = append(flags, appFile.Flags()...)
	flags = append(flags, dirCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally check directory connectivity",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate the configuration file
			appCfg, err := appFile.Load()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			logger.Info("Configuration validation passed",
				"config", appFile.Path(),
				"uid_attribute", appCfg.Directory.UIDAttribute,
				"mail_attribute", appCfg.Directory.MailAttribute,
				"photo_attribute", appCfg.Directory.PhotoAttribute,
				"user_search_filter", appCfg.Directory.UserSearchFilter,
			)

			// Step 2: If an LDAP URL is specified, check connectivity
			if !c.IsSet("ldap-url") {
				logger.Info("No LDAP URL specified, skipping directory connectivity check")
				return nil
			}

			directory, err := dirCfg.Configure(appCfg)
			if err != nil {
				return err
			}
			if err := directory.Ping(ctx); err != nil {
				return goerr.Wrap(err, "directory connectivity check failed")
			}

			logger.Info("Directory connectivity check passed", "directory", dirCfg)
			return nil
		},
	}
}
