package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ImageSize is a supported square avatar edge length in pixels.
// Each size maps to the SizeRequested token of the remote photo service.
type ImageSize int

const (
	ImageSize64  ImageSize = 64
	ImageSize96  ImageSize = 96
	ImageSize120 ImageSize = 120
	ImageSize240 ImageSize = 240
	ImageSize360 ImageSize = 360
	ImageSize432 ImageSize = 432
	ImageSize504 ImageSize = 504
	ImageSize648 ImageSize = 648
)

// AllImageSizes returns all supported sizes in ascending order
func AllImageSizes() []ImageSize {
	return []ImageSize{
		ImageSize64,
		ImageSize96,
		ImageSize120,
		ImageSize240,
		ImageSize360,
		ImageSize432,
		ImageSize504,
		ImageSize648,
	}
}

// DefaultImageSize is the size the directory stores its photo attribute in
func DefaultImageSize() ImageSize {
	return ImageSize64
}

// IsValid checks if the size is supported
func (s ImageSize) IsValid() bool {
	for _, v := range AllImageSizes() {
		if s == v {
			return true
		}
	}
	return false
}

// IsDefault reports whether s is the directory-native size
func (s ImageSize) IsDefault() bool {
	return s == DefaultImageSize()
}

// Pixels returns the edge length in pixels
func (s ImageSize) Pixels() int {
	return int(s)
}

// Token returns the size token understood by the remote photo service, e.g. "HR64x64"
func (s ImageSize) Token() string {
	return fmt.Sprintf("HR%dx%d", int(s), int(s))
}

// String returns the pixel count as string
func (s ImageSize) String() string {
	return strconv.Itoa(int(s))
}

// ParseImageSize parses a pixel count. Unparsable or unsupported values
// yield DefaultImageSize and ok=false.
func ParseImageSize(s string) (ImageSize, bool) {
	px, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultImageSize(), false
	}
	size := ImageSize(px)
	if !size.IsValid() {
		return DefaultImageSize(), false
	}
	return size, true
}

// NearestImageSize returns the supported size closest to px.
// Ties go to the smaller size.
func NearestImageSize(px int) ImageSize {
	sizes := AllImageSizes()
	nearest := sizes[0]
	minDiff := abs(px - int(nearest))
	for _, s := range sizes[1:] {
		if d := abs(px - int(s)); d < minDiff {
			nearest = s
			minDiff = d
		}
	}
	return nearest
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
