package types

import "strings"

// Mode selects what to serve when a user has no stored photo
type Mode string

const (
	ModeNotFound          Mode = "404"
	ModeIdenticon         Mode = "identicon"
	ModeFallbackIdenticon Mode = "fallbackIdenticon"
	ModeGeneric           Mode = "generic"
	ModeFallbackGeneric   Mode = "fallbackGeneric"
	ModeTriangle          Mode = "triangle"
	ModeFallbackTriangle  Mode = "fallbackTriangle"
	ModeSquare            Mode = "square"
	ModeFallbackSquare    Mode = "fallbackSquare"
	ModeGithub            Mode = "github"
	ModeFallbackGithub    Mode = "fallbackGithub"
)

// AllModes returns all valid modes
func AllModes() []Mode {
	return []Mode{
		ModeNotFound,
		ModeIdenticon,
		ModeFallbackIdenticon,
		ModeGeneric,
		ModeFallbackGeneric,
		ModeTriangle,
		ModeFallbackTriangle,
		ModeSquare,
		ModeFallbackSquare,
		ModeGithub,
		ModeFallbackGithub,
	}
}

// IsValid checks if the mode is one of the known modes
func (m Mode) IsValid() bool {
	for _, v := range AllModes() {
		if m == v {
			return true
		}
	}
	return false
}

// IsFallback reports whether the mode also applies to identifiers that
// cannot be resolved to a directory user.
func (m Mode) IsFallback() bool {
	switch m {
	case ModeFallbackIdenticon,
		ModeFallbackGeneric,
		ModeFallbackTriangle,
		ModeFallbackSquare,
		ModeFallbackGithub:
		return true
	default:
		return false
	}
}

// Style returns the generator style of the mode. ModeNotFound has none.
func (m Mode) Style() (Style, bool) {
	switch m {
	case ModeIdenticon, ModeFallbackIdenticon:
		return StyleIdenticon, true
	case ModeGeneric, ModeFallbackGeneric:
		return StyleGeneric, true
	case ModeTriangle, ModeFallbackTriangle:
		return StyleTriangle, true
	case ModeSquare, ModeFallbackSquare:
		return StyleSquare, true
	case ModeGithub, ModeFallbackGithub:
		return StyleGithub, true
	default:
		return "", false
	}
}

// String returns the request parameter value of the mode
func (m Mode) String() string {
	return string(m)
}

// ParseMode matches s case-insensitively against the known modes and
// returns def when nothing matches.
func ParseMode(s string, def Mode) Mode {
	for _, v := range AllModes() {
		if strings.EqualFold(string(v), s) {
			return v
		}
	}
	return def
}
