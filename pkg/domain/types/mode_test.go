package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ad2image/pkg/domain/types"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   types.Mode
		want  types.Mode
	}{
		{"exact match", "identicon", types.ModeGeneric, types.ModeIdenticon},
		{"case insensitive", "FALLBACKIDENTICON", types.ModeGeneric, types.ModeFallbackIdenticon},
		{"not found code", "404", types.ModeGeneric, types.ModeNotFound},
		{"unknown falls back to default", "mp", types.ModeFallbackGeneric, types.ModeFallbackGeneric},
		{"empty falls back to default", "", types.ModeNotFound, types.ModeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, types.ParseMode(tt.input, tt.def)).Equal(tt.want)
		})
	}
}

func TestMode_Style(t *testing.T) {
	tests := []struct {
		mode  types.Mode
		style types.Style
		ok    bool
	}{
		{types.ModeNotFound, "", false},
		{types.ModeIdenticon, types.StyleIdenticon, true},
		{types.ModeFallbackIdenticon, types.StyleIdenticon, true},
		{types.ModeGeneric, types.StyleGeneric, true},
		{types.ModeFallbackGeneric, types.StyleGeneric, true},
		{types.ModeTriangle, types.StyleTriangle, true},
		{types.ModeFallbackTriangle, types.StyleTriangle, true},
		{types.ModeSquare, types.StyleSquare, true},
		{types.ModeFallbackSquare, types.StyleSquare, true},
		{types.ModeGithub, types.StyleGithub, true},
		{types.ModeFallbackGithub, types.StyleGithub, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			style, ok := tt.mode.Style()
			gt.Value(t, ok).Equal(tt.ok)
			gt.Value(t, style).Equal(tt.style)
		})
	}
}

func TestMode_IsFallback(t *testing.T) {
	fallbacks := 0
	for _, m := range types.AllModes() {
		gt.B(t, m.IsValid()).True()
		if m.IsFallback() {
			fallbacks++
		}
	}
	gt.Value(t, fallbacks).Equal(5)
	gt.B(t, types.ModeNotFound.IsFallback()).False()
	gt.B(t, types.Mode("bogus").IsValid()).False()
}
