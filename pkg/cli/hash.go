package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdHash() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the Gravatar digest of email addresses",
		ArgsUsage: "EMAIL [EMAIL...]",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return goerr.New("at least one email address is required")
			}

			w := c.Root().Writer
			digest := color.New(color.FgGreen)
			for _, email := range c.Args().Slice() {
				if _, err := digest.Fprint(w, model.EmailDigest(email)); err != nil {
					return goerr.Wrap(err, "failed to write digest")
				}
				if _, err := fmt.Fprintf(w, "  %s\n", email); err != nil {
					return goerr.Wrap(err, "failed to write digest")
				}
			}
			return nil
		},
	}
}
