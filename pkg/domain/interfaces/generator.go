package interfaces

import "github.com/secmon-lab/ad2image/pkg/domain/types"

// AvatarGenerator draws a placeholder avatar. The same arguments always
// produce byte-identical output.
type AvatarGenerator interface {
	Generate(style types.Style, seed uint64, size types.ImageSize) ([]byte, error)
}
