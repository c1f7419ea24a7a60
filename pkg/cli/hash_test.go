package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ad2image/pkg/domain/model"
)

func TestHashCommand(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	t.Run("prints digest per email", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := cmdHash()
		cmd.Writer = &buf

		err := cmd.Run(context.Background(), []string{"hash", " Dummy.User@Example.com ", "other@example.com"})
		gt.NoError(t, err).Required()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		gt.Array(t, lines).Length(2).Required()
		gt.Bool(t, strings.HasPrefix(lines[0], model.EmailDigest("dummy.user@example.com"))).True()
		gt.String(t, lines[0]).Contains("Dummy.User@Example.com")
		gt.String(t, lines[1]).Contains("other@example.com")
	})

	t.Run("requires an email", func(t *testing.T) {
		cmd := cmdHash()
		cmd.Writer = &bytes.Buffer{}
		gt.Value(t, cmd.Run(context.Background(), []string{"hash"})).NotNil()
	})
}
