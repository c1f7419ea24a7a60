package avatar

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/domain/interfaces"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
)

// pcgStream is a fixed second word for the PCG source so the seed alone
// decides the picture
const pcgStream = 0x9e3779b97f4a7c15

var background = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}

// Generator draws placeholder avatars as PNG
type Generator struct {
	encoder *png.Encoder
}

var _ interfaces.AvatarGenerator = &Generator{}

func New() *Generator {
	return &Generator{
		encoder: &png.Encoder{CompressionLevel: png.BestCompression},
	}
}

// Generate draws style for seed at size. Identical arguments give identical bytes.
func (g *Generator) Generate(style types.Style, seed uint64, size types.ImageSize) ([]byte, error) {
	if !size.IsValid() {
		return nil, goerr.New("unsupported image size", goerr.V("size", int(size)))
	}

	px := size.Pixels()
	img := image.NewRGBA(image.Rect(0, 0, px, px))
	rng := rand.New(rand.NewPCG(seed, pcgStream)) // #nosec G404 -- not used for security

	switch style {
	case types.StyleIdenticon:
		drawIdenticon(img, rng)
	case types.StyleGithub:
		drawGithub(img, rng)
	case types.StyleSquare:
		drawSquare(img, rng)
	case types.StyleTriangle:
		drawTriangle(img, rng)
	case types.StyleGeneric:
		drawGeneric(img)
	default:
		return nil, goerr.New("unknown avatar style", goerr.V("style", string(style)))
	}

	var buf bytes.Buffer
	if err := g.encoder.Encode(&buf, img); err != nil {
		return nil, goerr.Wrap(err, "failed to encode avatar",
			goerr.V("style", string(style)),
			goerr.V("size", px))
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// cellRect maps cell (cx, cy) of an n*n grid onto the image, spreading the
// remainder so the grid always covers every pixel.
func cellRect(px, n, cx, cy int) image.Rectangle {
	return image.Rect(cx*px/n, cy*px/n, (cx+1)*px/n, (cy+1)*px/n)
}

// hsl converts hue [0,360), saturation and lightness [0,1] to RGBA
func hsl(h, s, l float64) color.RGBA {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g = c, x
	case hp < 2:
		r, g = x, c
	case hp < 3:
		g, b = c, x
	case hp < 4:
		g, b = x, c
	case hp < 5:
		r, b = x, c
	default:
		r, b = c, x
	}
	m := l - c/2
	return color.RGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 0xff,
	}
}

func randomHue(rng *rand.Rand) float64 {
	return float64(rng.IntN(360))
}

// drawGithub renders a 5x5 horizontally mirrored block pattern with a margin
func drawGithub(img *image.RGBA, rng *rand.Rand) {
	const grid = 5
	px := img.Bounds().Dx()
	fg := hsl(randomHue(rng), 0.45+rng.Float64()*0.2, 0.45+rng.Float64()*0.15)

	fill(img, img.Bounds(), background)

	margin := px / 12
	inner := px - 2*margin
	for cy := 0; cy < grid; cy++ {
		for cx := 0; cx < (grid+1)/2; cx++ {
			if rng.IntN(2) == 0 {
				continue
			}
			for _, x := range []int{cx, grid - 1 - cx} {
				r := cellRect(inner, grid, x, cy).Add(image.Pt(margin, margin))
				fill(img, r, fg)
			}
		}
	}
}

// drawIdenticon renders an 8x8 pattern mirrored on both axes in two colors
func drawIdenticon(img *image.RGBA, rng *rand.Rand) {
	const grid = 8
	px := img.Bounds().Dx()
	hue := randomHue(rng)
	primary := hsl(hue, 0.6, 0.5)
	secondary := hsl(math.Mod(hue+180, 360), 0.5, 0.75)

	fill(img, img.Bounds(), color.White)

	const half = grid / 2
	for cy := 0; cy < half; cy++ {
		for cx := 0; cx < half; cx++ {
			var c color.Color
			switch rng.IntN(3) {
			case 0:
				continue
			case 1:
				c = primary
			default:
				c = secondary
			}
			for _, p := range []image.Point{
				{cx, cy},
				{grid - 1 - cx, cy},
				{cx, grid - 1 - cy},
				{grid - 1 - cx, grid - 1 - cy},
			} {
				fill(img, cellRect(px, grid, p.X, p.Y), c)
			}
		}
	}
}

// drawSquare renders a 4x4 grid of squares in shades of one hue
func drawSquare(img *image.RGBA, rng *rand.Rand) {
	const grid = 4
	px := img.Bounds().Dx()
	hue := randomHue(rng)

	for cy := 0; cy < grid; cy++ {
		for cx := 0; cx < grid; cx++ {
			l := 0.3 + rng.Float64()*0.5
			fill(img, cellRect(px, grid, cx, cy), hsl(hue, 0.55, l))
		}
	}
}

// drawTriangle splits a 4x4 grid along alternating diagonals and shades each half
func drawTriangle(img *image.RGBA, rng *rand.Rand) {
	const grid = 4
	px := img.Bounds().Dx()
	hue := randomHue(rng)

	for cy := 0; cy < grid; cy++ {
		for cx := 0; cx < grid; cx++ {
			r := cellRect(px, grid, cx, cy)
			upper := hsl(hue, 0.6, 0.3+rng.Float64()*0.5)
			lower := hsl(hue, 0.6, 0.3+rng.Float64()*0.5)
			flip := (cx+cy)%2 == 1

			w, h := r.Dx(), r.Dy()
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					// above the diagonal from top-left to bottom-right, or its mirror
					var above bool
					if flip {
						above = x*h+y*w < w*h
					} else {
						above = y*w < x*h
					}
					c := lower
					if above {
						c = upper
					}
					img.SetRGBA(r.Min.X+x, r.Min.Y+y, c)
				}
			}
		}
	}
}

// drawGeneric renders a neutral head and shoulders silhouette
func drawGeneric(img *image.RGBA) {
	px := img.Bounds().Dx()
	figure := color.RGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}
	fill(img, img.Bounds(), color.RGBA{R: 0xe6, G: 0xe6, B: 0xe6, A: 0xff})

	// head
	hx, hy, hr := px/2, px*3/8, px/5
	// shoulders: upper half of an ellipse centred below the image
	sx, sy, srx, sry := px/2, px+px/8, px*2/5, px/2

	for y := 0; y < px; y++ {
		for x := 0; x < px; x++ {
			dx, dy := x-hx, y-hy
			inHead := dx*dx+dy*dy <= hr*hr

			ex, ey := float64(x-sx)/float64(srx), float64(y-sy)/float64(sry)
			inBody := ex*ex+ey*ey <= 1

			if inHead || inBody {
				img.SetRGBA(x, y, figure)
			}
		}
	}
}
