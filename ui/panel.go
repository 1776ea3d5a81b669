package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/widgets"
)

// Panel draws the page foreground. Must be called between rl.BeginDrawing
// and rl.EndDrawing.
type Panel struct {
	Theme   Theme
	profile config.ProfileConfig
	maxAge  time.Duration
}

// NewPanel creates a panel for the given profile. Device readings older than
// maxAge are shown as stale.
func NewPanel(profile config.ProfileConfig, maxAge time.Duration) *Panel {
	return &Panel{
		Theme:   DefaultTheme(),
		profile: profile,
		maxAge:  maxAge,
	}
}

// Draw draws the profile card and the widget card for a w x h window.
// Returns true when the refresh button was pressed.
func (p *Panel) Draw(w, h int32, snap widgets.Snapshot, loading bool, now time.Time) bool {
	profile, board := p.layout(w, h)
	p.drawProfile(profile)
	return p.drawBoard(board, snap, loading, now)
}

// layout splits the window into the two cards: side by side on wide
// windows, stacked on narrow ones.
func (p *Panel) layout(w, h int32) (profile, board rl.Rectangle) {
	t := p.Theme
	contentW := min(w-2*t.Padding, t.MaxWidth)
	left := float32((w - contentW) / 2)
	top := float32(t.Padding)
	avail := float32(h - 2*t.Padding)

	if w < t.StackBelow {
		profileH := min(avail*0.4, 320)
		profile = rl.Rectangle{X: left, Y: top, Width: float32(contentW), Height: profileH}
		board = rl.Rectangle{X: left, Y: top + profileH + float32(t.Gap), Width: float32(contentW), Height: avail - profileH - float32(t.Gap)}
		return profile, board
	}

	colW := float32(contentW-t.Gap) / 2
	profileH := min(avail, 460)
	profile = rl.Rectangle{X: left, Y: top + (avail-profileH)/2, Width: colW, Height: profileH}
	board = rl.Rectangle{X: left + colW + float32(t.Gap), Y: top, Width: colW, Height: avail}
	return profile, board
}

func (p *Panel) card(r rl.Rectangle) {
	t := p.Theme
	shadow := rl.Rectangle{X: r.X - 6, Y: r.Y - 6, Width: r.Width + 12, Height: r.Height + 12}
	rl.DrawRectangleRounded(shadow, t.Roundness, 12, t.CardShadow)
	rl.DrawRectangleRounded(r, t.Roundness, 12, t.CardBg)
}

func (p *Panel) drawProfile(r rl.Rectangle) {
	t := p.Theme
	p.card(r)

	cx := int32(r.X + r.Width/2)
	y := int32(r.Y) + t.Padding*2

	// Avatar placeholder ring.
	rl.DrawCircle(cx, y+48, 52, t.CardShadow)
	rl.DrawCircle(cx, y+48, 46, rl.White)
	initial := "?"
	if p.profile.Name != "" {
		initial = string([]rune(p.profile.Name)[:1])
	}
	iw := rl.MeasureText(initial, t.NameSize)
	rl.DrawText(initial, cx-iw/2, y+48-t.NameSize/2, t.NameSize, t.Accent)
	y += 96 + t.Padding

	y = p.centered(p.profile.Name, cx, y, t.NameSize, t.Accent)
	y += t.Padding / 2
	y = p.centered(p.profile.Greeting, cx, y, t.FontSize+2, t.Text)
	y += t.LineHeight / 2
	y = p.centered(p.profile.Motto, cx, y, t.FontSize+2, t.Muted)
	y += t.Padding

	n := float32(len(p.profile.Links))
	if n == 0 {
		return
	}
	rowW := n*t.LinkWidth + (n-1)*8
	x := float32(cx) - rowW/2
	for _, link := range p.profile.Links {
		if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: t.LinkWidth, Height: t.LinkHeight}, link.Label) {
			rl.OpenURL(link.URL)
		}
		x += t.LinkWidth + 8
	}
}

// centered draws one line of text centred on cx and returns the next y.
func (p *Panel) centered(text string, cx, y, size int32, c rl.Color) int32 {
	if text == "" {
		return y
	}
	w := rl.MeasureText(text, size)
	rl.DrawText(text, cx-w/2, y, size, c)
	return y + size + 4
}

func (p *Panel) drawBoard(r rl.Rectangle, snap widgets.Snapshot, loading bool, now time.Time) bool {
	t := p.Theme
	p.card(r)

	x := int32(r.X) + t.Padding
	y := int32(r.Y) + t.Padding
	innerW := int32(r.Width) - 2*t.Padding
	bottom := int32(r.Y+r.Height) - t.Padding

	rl.DrawText("Latest", x, y, t.HeaderSize+6, t.Accent)
	refresh := gui.Button(rl.Rectangle{
		X:      float32(x+innerW) - t.RefreshSize,
		Y:      float32(y),
		Width:  t.RefreshSize,
		Height: t.LinkHeight,
	}, refreshLabel(loading))
	y += t.HeaderSize + 6 + t.Padding/2

	if !snap.FetchedAt.IsZero() {
		gui.Label(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(innerW), Height: float32(t.LineHeight)},
			"Updated "+snap.FetchedAt.Local().Format("15:04:05"))
		y += t.LineHeight + t.Padding/2
	}

	for _, sec := range snap.Sections(now, p.maxAge) {
		if y+2*t.LineHeight > bottom {
			break
		}
		y = p.drawSection(sec, x, y, innerW, bottom)
	}
	return refresh && !loading
}

func refreshLabel(loading bool) string {
	if loading {
		return "Loading..."
	}
	return "Refresh"
}

// drawSection draws a group box for sec starting at y and returns the y
// below it. Rows that do not fit above bottom are summarised.
func (p *Panel) drawSection(sec widgets.Section, x, y, w, bottom int32) int32 {
	t := p.Theme
	rows := max(len(sec.Rows), 1)
	boxH := int32(rows)*t.LineHeight + t.Padding
	if y+boxH > bottom {
		boxH = bottom - y
	}
	gui.GroupBox(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(w), Height: float32(boxH)}, sec.Title)

	rx := x + t.Padding/2
	ry := y + t.Padding/2 + 4
	rw := w - t.Padding
	if len(sec.Rows) == 0 {
		rl.DrawText(sec.Placeholder, rx, ry, t.FontSize, t.Muted)
		return y + boxH + t.Padding/2
	}

	for i, row := range sec.Rows {
		if ry+t.LineHeight > y+boxH {
			more := fmt.Sprintf("+%d more", len(sec.Rows)-i)
			rl.DrawText(more, rx+rw-rl.MeasureText(more, t.FontSize), y+boxH-t.LineHeight, t.FontSize, t.Muted)
			break
		}
		p.drawRow(row, rx, ry, rw)
		ry += t.LineHeight
	}
	return y + boxH + t.Padding/2
}

func (p *Panel) drawRow(row widgets.Row, x, y, w int32) {
	t := p.Theme
	detailW := rl.MeasureText(row.Detail, t.FontSize-2)
	badgeW := rl.MeasureText(row.Badge, t.FontSize)
	titleW := w - detailW - badgeW - 24

	rl.DrawText(fit(row.Title, titleW, t.FontSize), x, y, t.FontSize, t.Text)
	rl.DrawText(row.Badge, x+w-detailW-badgeW-12, y, t.FontSize, t.ToneColor(row.Tone))
	if row.Detail != "" {
		rl.DrawText(row.Detail, x+w-detailW, y+2, t.FontSize-2, t.Muted)
	}
}

// fit shortens text with an ellipsis until it measures at most w pixels.
func fit(text string, w, size int32) string {
	if rl.MeasureText(text, size) <= w {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		s := string(runes) + "..."
		if rl.MeasureText(s, size) <= w {
			return s
		}
	}
	return ""
}
