// Package ui draws the profile card and widget board over the petal background.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/koileo/sakura/widgets"
)

// Theme holds UI styling constants.
type Theme struct {
	CardBg      rl.Color
	CardShadow  rl.Color
	Accent      rl.Color // Name and headings
	Text        rl.Color
	Muted       rl.Color
	Good        rl.Color
	Bad         rl.Color
	Warn        rl.Color
	Padding     int32
	Gap         int32 // Between the two cards
	LineHeight  int32
	FontSize    int32
	HeaderSize  int32
	NameSize    int32
	MaxWidth    int32 // Content width cap
	StackBelow  int32 // Window width under which the cards stack vertically
	Roundness   float32
	LinkWidth   float32
	LinkHeight  float32
	RefreshSize float32
}

// DefaultTheme returns the pink-on-white page theme.
func DefaultTheme() Theme {
	return Theme{
		CardBg:      rl.Color{R: 255, G: 255, B: 255, A: 178},
		CardShadow:  rl.Color{R: 255, G: 182, B: 193, A: 90},
		Accent:      rl.Color{R: 236, G: 72, B: 153, A: 255},
		Text:        rl.Color{R: 55, G: 65, B: 81, A: 255},
		Muted:       rl.Color{R: 107, G: 114, B: 128, A: 255},
		Good:        rl.Color{R: 22, G: 163, B: 74, A: 255},
		Bad:         rl.Color{R: 220, G: 38, B: 38, A: 255},
		Warn:        rl.Color{R: 234, G: 88, B: 12, A: 255},
		Padding:     24,
		Gap:         32,
		LineHeight:  22,
		FontSize:    16,
		HeaderSize:  22,
		NameSize:    48,
		MaxWidth:    1152,
		StackBelow:  768,
		Roundness:   0.12,
		LinkWidth:   110,
		LinkHeight:  28,
		RefreshSize: 90,
	}
}

// ToneColor maps a row tone to its badge colour.
func (t Theme) ToneColor(tone widgets.Tone) rl.Color {
	switch tone {
	case widgets.ToneGood:
		return t.Good
	case widgets.ToneBad:
		return t.Bad
	case widgets.ToneWarn:
		return t.Warn
	case widgets.ToneMuted:
		return t.Muted
	}
	return t.Text
}
