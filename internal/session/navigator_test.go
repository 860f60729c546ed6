package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromesnap/pkg/models"
)

// fakePager records navigations and serves canned page state.
type fakePager struct {
	current  string
	navLog   []string
	failURLs map[string]error
}

func newFakePager(origin string) *fakePager {
	return &fakePager{current: origin, failURLs: map[string]error{}}
}

func (f *fakePager) Navigate(url string) error {
	if err := f.failURLs[url]; err != nil {
		return err
	}
	f.navLog = append(f.navLog, url)
	f.current = url
	return nil
}

func (f *fakePager) Location() (string, error) { return f.current, nil }
func (f *fakePager) Title() (string, error)    { return "title of " + f.current, nil }
func (f *fakePager) Screenshot() ([]byte, error) {
	return []byte("png:" + f.current), nil
}
func (f *fakePager) PageData() (models.PageData, error) {
	return models.PageData{URL: f.current, Timestamp: time.Now()}, nil
}

// fakeRecorder remembers what was saved without touching disk.
type fakeRecorder struct {
	screenshots []string
	dataFiles   []string
}

func (f *fakeRecorder) SaveScreenshot(png []byte, filename string) (string, error) {
	f.screenshots = append(f.screenshots, filename)
	return "output/screenshots/" + filename, nil
}

func (f *fakeRecorder) SavePageData(data models.PageData, filename string) (string, error) {
	f.dataFiles = append(f.dataFiles, filename)
	return "output/data/" + filename, nil
}

func TestSweepVisitsAndReturns(t *testing.T) {
	origin := "https://example.com/start"
	pager := newFakePager(origin)
	sink := &fakeRecorder{}

	links := []models.Link{
		{Text: "First Link", Href: "https://example.com/a"},
		{Text: "Second", Href: "https://example.com/b"},
	}

	nav := NewNavigator(pager, sink, Options{TakeScreenshots: true, ExtractData: true})
	results, err := nav.Sweep(links)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Every visit is followed by a return to the origin page.
	assert.Equal(t, []string{
		"https://example.com/a", origin,
		"https://example.com/b", origin,
	}, pager.navLog)

	assert.Equal(t, "https://example.com/a", results[0].FinalURL)
	assert.Equal(t, "title of https://example.com/a", results[0].PageTitle)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "output/screenshots/navigation_001_First_Link.png", results[0].ScreenshotPath)
	assert.Equal(t, "output/data/navigation_002_Second.json", results[1].DataPath)

	assert.Equal(t, []string{"navigation_001_First_Link.png", "navigation_002_Second.png"}, sink.screenshots)
}

func TestSweepRecordsFailureAndContinues(t *testing.T) {
	origin := "https://example.com/start"
	pager := newFakePager(origin)
	pager.failURLs["https://example.com/broken"] = errors.New("navigation failed")
	sink := &fakeRecorder{}

	links := []models.Link{
		{Text: "broken", Href: "https://example.com/broken"},
		{Text: "fine", Href: "https://example.com/fine"},
	}

	nav := NewNavigator(pager, sink, Options{ExtractData: true})
	results, err := nav.Sweep(links)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Error, "navigation failed")
	assert.Empty(t, results[0].DataPath)

	assert.Empty(t, results[1].Error)
	assert.Equal(t, "output/data/navigation_002_fine.json", results[1].DataPath)

	// The tab is back at the origin at the end.
	assert.Equal(t, origin, pager.current)
}

func TestSweepMaxLinks(t *testing.T) {
	pager := newFakePager("https://example.com")
	sink := &fakeRecorder{}

	var links []models.Link
	for i := 0; i < 10; i++ {
		links = append(links, models.Link{Href: fmt.Sprintf("https://example.com/%d", i)})
	}

	nav := NewNavigator(pager, sink, Options{MaxLinks: 3})
	results, err := nav.Sweep(links)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestVisitLabel(t *testing.T) {
	tests := []struct {
		index int
		text  string
		want  string
	}{
		{0, "Sign up", "navigation_001_Sign_up"},
		{2, "", "navigation_003_untitled"},
		{0, "a/b:c", "navigation_001_a_b_c"},
		{0, "this link text is definitely longer than thirty characters", "navigation_001_this_link_text_is_definitely_l"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, visitLabel(tt.index, tt.text))
	}
}

func TestPolitenessAllowsOnMissingRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	p := NewPoliteness("chromesnap/1.0", time.Millisecond)
	assert.True(t, p.Allowed(server.URL+"/anything"))
}

func TestPolitenessHonorsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprintln(w, "User-agent: *\nDisallow: /private/")
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p := NewPoliteness("chromesnap/1.0", time.Millisecond)
	assert.True(t, p.Allowed(server.URL+"/public/page"))
	assert.False(t, p.Allowed(server.URL+"/private/page"))
}

func TestPolitenessWaitThrottlesPerDomain(t *testing.T) {
	p := NewPoliteness("chromesnap/1.0", 50*time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait("https://example.com/a"))
	require.NoError(t, p.Wait("https://example.com/b"))
	elapsed := time.Since(start)

	// Second visit to the same domain waits for the limiter.
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}
