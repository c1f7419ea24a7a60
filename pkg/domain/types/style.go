package types

// Style is a fallback avatar drawing style
type Style string

const (
	StyleIdenticon Style = "identicon"
	StyleGeneric   Style = "generic"
	StyleTriangle  Style = "triangle"
	StyleSquare    Style = "square"
	StyleGithub    Style = "github"
)

// AllStyles returns all generator styles
func AllStyles() []Style {
	return []Style{
		StyleIdenticon,
		StyleGeneric,
		StyleTriangle,
		StyleSquare,
		StyleGithub,
	}
}

// String returns the string representation of the style
func (s Style) String() string {
	return string(s)
}
