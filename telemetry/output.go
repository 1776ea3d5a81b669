package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/koileo/sakura/bangumi"
	"github.com/koileo/sakura/codeforces"
	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/widgets"
)

// SubmissionRow is one row of submissions.csv.
type SubmissionRow struct {
	FetchedAt string `csv:"fetched_at"`
	ID        int64  `csv:"id"`
	Problem   string `csv:"problem"`
	Name      string `csv:"name"`
	Language  string `csv:"language"`
	Verdict   string `csv:"verdict"`
	Created   string `csv:"created"`
}

// CollectionRow is one row of collections.csv.
type CollectionRow struct {
	FetchedAt string  `csv:"fetched_at"`
	Shelf     string  `csv:"shelf"`
	SubjectID int     `csv:"subject_id"`
	Name      string  `csv:"name"`
	EpStatus  int     `csv:"ep_status"`
	Eps       int     `csv:"eps"`
	Rate      int     `csv:"rate"`
	Score     float64 `csv:"score"`
}

// csvFile appends gocsv records, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager writes run output into a directory.
type OutputManager struct {
	dir         string
	perf        csvFile
	submissions csvFile
	collections csvFile
}

// NewOutputManager creates dir and opens the CSV files in it.
// Returns nil if dir is empty (output disabled); all methods accept a nil receiver.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, out := range []struct {
		name string
		file *csvFile
	}{
		{"perf.csv", &om.perf},
		{"submissions.csv", &om.submissions},
		{"collections.csv", &om.collections},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		out.file.f = f
	}
	return om, nil
}

// WriteConfig saves the configuration in effect as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePerf appends a perf.csv row for the window ending at frame.
func (om *OutputManager) WritePerf(stats PerfStats, frame int64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(frame)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSnapshot appends the widget snapshot to submissions.csv and collections.csv.
func (om *OutputManager) WriteSnapshot(snap widgets.Snapshot) error {
	if om == nil {
		return nil
	}
	at := snap.FetchedAt.UTC().Format(time.RFC3339)

	if subs := submissionRows(at, snap.Submissions); len(subs) > 0 {
		if err := om.submissions.write(subs); err != nil {
			return fmt.Errorf("writing submissions: %w", err)
		}
	}

	cols := collectionRows(at, "watching", snap.Watching)
	cols = append(cols, collectionRows(at, "completed", snap.Completed)...)
	if len(cols) > 0 {
		if err := om.collections.write(cols); err != nil {
			return fmt.Errorf("writing collections: %w", err)
		}
	}
	return nil
}

func submissionRows(at string, subs []codeforces.Submission) []SubmissionRow {
	rows := make([]SubmissionRow, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, SubmissionRow{
			FetchedAt: at,
			ID:        s.ID,
			Problem:   s.Problem.Code(),
			Name:      s.Problem.Name,
			Language:  s.ProgrammingLanguage,
			Verdict:   string(s.Verdict),
			Created:   s.Created().UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func collectionRows(at, shelf string, items []bangumi.Collection) []CollectionRow {
	rows := make([]CollectionRow, 0, len(items))
	for _, c := range items {
		rows = append(rows, CollectionRow{
			FetchedAt: at,
			Shelf:     shelf,
			SubjectID: c.SubjectID,
			Name:      c.DisplayName(),
			EpStatus:  c.EpStatus,
			Eps:       c.Subject.Eps,
			Rate:      c.Rate,
			Score:     c.Subject.Score,
		})
	}
	return rows
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range []*csvFile{&om.perf, &om.submissions, &om.collections} {
		if c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.f = nil
	}
	return firstErr
}
