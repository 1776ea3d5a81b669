package bangumi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koileo/sakura/collection"
	"github.com/koileo/sakura/config"
)

type fakeAPI struct {
	total   int
	rawBody map[int]string // Offset -> literal body override
	status  map[int]int

	mu      sync.Mutex
	queries []map[string]string
	agents  []string
	paths   []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	f.mu.Lock()
	f.queries = append(f.queries, map[string]string{
		"subject_type": q.Get("subject_type"),
		"type":         q.Get("type"),
		"limit":        q.Get("limit"),
		"offset":       q.Get("offset"),
	})
	f.agents = append(f.agents, r.Header.Get("User-Agent"))
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if code := f.status[offset]; code != 0 {
		w.WriteHeader(code)
		fmt.Fprint(w, `{"title":"Bad Gateway"}`)
		return
	}
	if body, ok := f.rawBody[offset]; ok {
		fmt.Fprint(w, body)
		return
	}

	data := []Collection{}
	for i := offset; i < offset+limit && i < f.total; i++ {
		data = append(data, Collection{
			SubjectID: i,
			Type:      Doing,
			Subject:   Subject{ID: i, Name: fmt.Sprintf("show-%d", i)},
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":   data,
		"total":  f.total,
		"limit":  limit,
		"offset": offset,
	})
}

// recorded returns copies of what the server saw so far.
func (f *fakeAPI) recorded() (queries []map[string]string, agents, paths []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(queries, f.queries...), append(agents, f.agents...), append(paths, f.paths...)
}

func newTestClient(t *testing.T, api *fakeAPI, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := NewClient(
		config.BangumiConfig{BaseURL: srv.URL + "/", Username: "koileo", PageSize: pageSize},
		config.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "sakura-test"},
		nil,
	)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPagesSendsQuery(t *testing.T) {
	api := &fakeAPI{total: 3}
	c := newTestClient(t, api, 50)

	page, err := c.Pages("koileo", Done)(context.Background(), 0, 50)
	require.NoError(t, err)

	require.NotNil(t, page.Total)
	assert.Equal(t, 3, *page.Total)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, "show-1", page.Items[1].DisplayName())

	queries, agents, paths := api.recorded()
	require.Len(t, queries, 1)
	assert.Equal(t, map[string]string{
		"subject_type": "2",
		"type":         "2",
		"limit":        "50",
		"offset":       "0",
	}, queries[0])
	assert.Equal(t, "/v0/users/koileo/collections", paths[0])
	assert.Equal(t, "sakura-test", agents[0])
}

func TestPagesTotalValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *int
	}{
		{"missing", `{"data":[]}`, nil},
		{"null", `{"data":[],"total":null}`, nil},
		{"string", `{"data":[],"total":"12"}`, nil},
		{"fraction", `{"data":[],"total":1.5}`, nil},
		{"zero", `{"data":[],"total":0}`, ptr(0)},
		{"integral float", `{"data":[],"total":12.0}`, ptr(12)},
		{"negative", `{"data":[],"total":-1}`, ptr(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{rawBody: map[int]string{0: tt.body}}
			c := newTestClient(t, api, 10)

			page, err := c.Pages("koileo", Doing)(context.Background(), 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
		})
	}
}

func TestPagesMissingDataIsNil(t *testing.T) {
	api := &fakeAPI{rawBody: map[int]string{0: `{"total":4}`}}
	c := newTestClient(t, api, 10)

	page, err := c.Pages("koileo", Doing)(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Nil(t, page.Items)
}

func TestPagesErrorStatus(t *testing.T) {
	api := &fakeAPI{total: 10, status: map[int]int{0: http.StatusBadGateway}}
	c := newTestClient(t, api, 10)

	_, err := c.Pages("koileo", Doing)(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWatchingCollectsEveryPage(t *testing.T) {
	api := &fakeAPI{total: 23}
	c := newTestClient(t, api, 10)

	got := c.Watching(context.Background())

	require.Len(t, got, 23)
	for i, item := range got {
		assert.Equal(t, i, item.SubjectID)
	}
	queries, _, _ := api.recorded()
	assert.Len(t, queries, 3)
	for _, q := range queries {
		assert.Equal(t, "3", q["type"])
	}
}

func TestCompletedDropsFailedPage(t *testing.T) {
	api := &fakeAPI{total: 30, status: map[int]int{10: http.StatusInternalServerError}}
	c := newTestClient(t, api, 10)

	got := c.Completed(context.Background())

	assert.Len(t, got, 20)
	assert.Equal(t, 20, got[10].SubjectID)
}

func TestWatchingProtocolErrorDegrades(t *testing.T) {
	api := &fakeAPI{rawBody: map[int]string{0: `{"data":[{"subject_id":1}]}`}}
	c := newTestClient(t, api, 10)

	got := c.Watching(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetcherComposesWithCollect(t *testing.T) {
	api := &fakeAPI{total: 5}
	c := newTestClient(t, api, 2)

	res, err := collection.Collect(context.Background(), c.Pages("someone", Wish), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Requests)
	assert.Len(t, res.Items, 5)
	_, _, paths := api.recorded()
	assert.Equal(t, "/v0/users/someone/collections", paths[0])
}

func TestDisplayNamePrefersChinese(t *testing.T) {
	c := Collection{Subject: Subject{Name: "Sakura-sou", NameCN: "樱花庄"}}
	assert.Equal(t, "樱花庄", c.DisplayName())
}

func TestCollectionTypeString(t *testing.T) {
	assert.Equal(t, "doing", Doing.String())
	assert.Equal(t, "type(9)", CollectionType(9).String())
}

func ptr(n int) *int { return &n }
