package widgets

import (
	"fmt"
	"time"

	"github.com/koileo/sakura/bangumi"
	"github.com/koileo/sakura/codeforces"
)

// Tone colours a row badge.
type Tone int

const (
	ToneNormal Tone = iota
	ToneGood
	ToneBad
	ToneWarn
	ToneMuted
)

// Row is one line of a widget section.
type Row struct {
	Title  string
	Badge  string
	Detail string
	Tone   Tone
}

// Section is a titled widget list. Placeholder is shown when Rows is empty.
type Section struct {
	Title       string
	Rows        []Row
	Placeholder string
}

const timeLayout = "2006-01-02 15:04"

// Sections lays the snapshot out for display. Device readings older than
// maxAge at now are marked stale.
func (s Snapshot) Sections(now time.Time, maxAge time.Duration) []Section {
	out := []Section{
		{Title: "Codeforces recent submissions", Placeholder: "No submissions", Rows: submissionRows(s.Submissions)},
		{Title: "Watching", Placeholder: "Nothing on air", Rows: animeRows(s.Watching)},
		{Title: "Completed", Placeholder: "Nothing finished yet", Rows: animeRows(s.Completed)},
	}
	if s.Device != nil {
		out = append(out, Section{Title: "Device", Rows: []Row{deviceRow(s, now, maxAge)}})
	}
	return out
}

func submissionRows(subs []codeforces.Submission) []Row {
	rows := make([]Row, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, Row{
			Title:  sub.Problem.Name,
			Badge:  sub.Verdict.Label(),
			Detail: sub.Created().Local().Format(timeLayout),
			Tone:   verdictTone(sub.Verdict.Tone()),
		})
	}
	return rows
}

func verdictTone(t codeforces.Tone) Tone {
	switch t {
	case codeforces.ToneAccepted:
		return ToneGood
	case codeforces.ToneRejected:
		return ToneBad
	case codeforces.ToneSlow:
		return ToneWarn
	}
	return ToneMuted
}

func animeRows(items []bangumi.Collection) []Row {
	rows := make([]Row, 0, len(items))
	for _, c := range items {
		eps := "?"
		if c.Subject.Eps > 0 {
			eps = fmt.Sprint(c.Subject.Eps)
		}
		row := Row{
			Title: c.DisplayName(),
			Badge: fmt.Sprintf("%d/%s", c.EpStatus, eps),
		}
		if c.Rate > 0 {
			row.Detail = fmt.Sprintf("rated %d", c.Rate)
		}
		if c.Subject.Eps > 0 && c.EpStatus >= c.Subject.Eps {
			row.Tone = ToneGood
		}
		rows = append(rows, row)
	}
	return rows
}

func deviceRow(s Snapshot, now time.Time, maxAge time.Duration) Row {
	st := s.Device
	row := Row{Title: st.Device, Badge: "offline", Tone: ToneMuted}
	switch {
	case st.Stale(now, maxAge):
		row.Badge, row.Tone = "stale", ToneWarn
	case st.Online:
		row.Badge, row.Tone = "online", ToneGood
	}

	row.Detail = fmt.Sprintf("battery %d%%", st.Battery)
	if st.Charging {
		row.Detail += " charging"
	}
	if st.App != "" {
		row.Detail += ", " + st.App
	}
	return row
}
