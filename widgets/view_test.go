package widgets

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koileo/sakura/bangumi"
	"github.com/koileo/sakura/codeforces"
	"github.com/koileo/sakura/device"
)

func TestSectionsEmptySnapshot(t *testing.T) {
	secs := Snapshot{}.Sections(time.Now(), time.Minute)

	require.Len(t, secs, 3, "device section only appears with a reading")
	for _, s := range secs {
		assert.Empty(t, s.Rows)
		assert.NotEmpty(t, s.Placeholder)
	}
}

func TestSectionsSubmissionTones(t *testing.T) {
	snap := Snapshot{Submissions: []codeforces.Submission{
		{Problem: codeforces.Problem{Name: "A"}, Verdict: codeforces.Accepted},
		{Problem: codeforces.Problem{Name: "B"}, Verdict: codeforces.WrongAnswer},
		{Problem: codeforces.Problem{Name: "C"}, Verdict: codeforces.TimeLimitExceeded},
		{Problem: codeforces.Problem{Name: "D"}, Verdict: "MEMORY_LIMIT_EXCEEDED"},
	}}

	rows := snap.Sections(time.Now(), 0)[0].Rows

	got := make([]Row, len(rows))
	for i, r := range rows {
		got[i] = Row{Title: r.Title, Badge: r.Badge, Tone: r.Tone}
	}
	want := []Row{
		{Title: "A", Badge: "OK", Tone: ToneGood},
		{Title: "B", Badge: "WRONG ANSWER", Tone: ToneBad},
		{Title: "C", Badge: "TIME LIMIT_EXCEEDED", Tone: ToneWarn},
		{Title: "D", Badge: "MEMORY LIMIT_EXCEEDED", Tone: ToneMuted},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionsAnimeProgress(t *testing.T) {
	snap := Snapshot{
		Watching: []bangumi.Collection{
			{EpStatus: 3, Subject: bangumi.Subject{Name: "Frieren", Eps: 28}},
			{EpStatus: 5, Rate: 9, Subject: bangumi.Subject{Name: "One Piece"}},
		},
		Completed: []bangumi.Collection{
			{EpStatus: 12, Subject: bangumi.Subject{Name: "K-On!", NameCN: "轻音少女", Eps: 12}},
		},
	}

	secs := snap.Sections(time.Now(), 0)

	assert.Equal(t, "3/28", secs[1].Rows[0].Badge)
	assert.Equal(t, "5/?", secs[1].Rows[1].Badge)
	assert.Equal(t, "rated 9", secs[1].Rows[1].Detail)
	assert.Equal(t, "轻音少女", secs[2].Rows[0].Title)
	assert.Equal(t, ToneGood, secs[2].Rows[0].Tone)
}

func TestSectionsDeviceStates(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		st    device.Status
		badge string
		tone  Tone
	}{
		{"online", device.Status{Online: true, UpdatedAt: now}, "online", ToneGood},
		{"offline", device.Status{UpdatedAt: now}, "offline", ToneMuted},
		{"stale", device.Status{Online: true, UpdatedAt: now.Add(-time.Hour)}, "stale", ToneWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.st
			st.Device = "pixel"
			st.Battery = 40
			st.Charging = true
			st.App = "Bilibili"

			secs := Snapshot{Device: &st}.Sections(now, 10*time.Minute)

			require.Len(t, secs, 4)
			row := secs[3].Rows[0]
			assert.Equal(t, tt.badge, row.Badge)
			assert.Equal(t, tt.tone, row.Tone)
			assert.Equal(t, "battery 40% charging, Bilibili", row.Detail)
		})
	}
}
