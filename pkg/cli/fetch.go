package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/cli/config"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
	"github.com/secmon-lab/ad2image/pkg/service/avatar"
	"github.com/secmon-lab/ad2image/pkg/usecase"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
	"github.com/secmon-lab/ad2image/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdFetch() *cli.Command {
	var uid string
	var mode string
	var size string
	var output string
	var appFile config.AppFile
	var dirCfg config.Directory
	var photoCfg config.Photo

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "uid",
			Aliases:     []string{"u"},
			Usage:       "User ID to resolve",
			Required:    true,
			Destination: &uid,
		},
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "Avatar mode",
			Value:       types.ModeFallbackGeneric.String(),
			Destination: &mode,
		},
		&cli.StringFlag{
			Name:        "size",
			Aliases:     []string{"s"},
			Usage:       "Image size (e.g. 64, 240, 648)",
			Value:       types.DefaultImageSize().String(),
			Destination: &size,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file, \"-\" for stdout",
			Value:       "-",
			Destination: &output,
		},
	}
	flags = append(flags, appFile.Flags()...)
	flags = append(flags, dirCfg.Flags()...)
	flags = append(flags, photoCfg.Flags()...)

	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Resolve a single avatar and write it out",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			m, imageSize, err := parseFetchTarget(mode, size)
			if err != nil {
				return err
			}

			appCfg, err := appFile.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			directory, err := dirCfg.Configure(appCfg)
			if err != nil {
				return err
			}
			photo, err := photoCfg.Configure()
			if err != nil {
				return err
			}

			nativeSize, err := dirCfg.PhotoSize()
			if err != nil {
				return err
			}

			resolver := usecase.NewAvatarResolver(directory, photo, avatar.New(), nil,
				usecase.WithNativeSize(nativeSize))
			data, err := resolver.Resolve(ctx, uid, m, imageSize)
			if err != nil {
				return goerr.Wrap(err, "failed to resolve avatar")
			}
			if data == nil {
				return goerr.New("no avatar for user",
					goerr.V(usecase.UIDKey, uid),
					goerr.V(usecase.ModeKey, mode))
			}

			if output == "-" {
				safe.Write(ctx, c.Root().Writer, data)
				return nil
			}

			if err := os.WriteFile(output, data, 0o644); err != nil { // #nosec G306 -- image output
				return goerr.Wrap(err, "failed to write avatar", goerr.V("path", output))
			}
			logging.From(ctx).Info("Avatar written", "uid", uid, "mode", mode, "size", imageSize.String(), "path", output, "bytes", len(data))
			return nil
		},
	}
}

// parseFetchTarget matches mode case-insensitively like the HTTP API, but
// rejects unknown values instead of falling back to a default.
func parseFetchTarget(mode, size string) (types.Mode, types.ImageSize, error) {
	m := types.ParseMode(mode, "")
	if m == "" {
		return "", 0, goerr.Wrap(config.ErrInvalidMode, "unknown mode", goerr.V("mode", mode))
	}
	imageSize, ok := types.ParseImageSize(size)
	if !ok {
		return "", 0, goerr.Wrap(config.ErrInvalidImageSize, "unsupported image size", goerr.V("size", size))
	}
	return m, imageSize, nil
}
