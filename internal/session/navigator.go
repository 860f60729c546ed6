// Package session drives multi-page flows over one attached browser tab:
// visit a set of links, capture each page, and come back to where we started.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"chromesnap/pkg/models"
)

// Pager is the slice of a browser session the navigator needs.
type Pager interface {
	Navigate(url string) error
	Location() (string, error)
	Title() (string, error)
	Screenshot() ([]byte, error)
	PageData() (models.PageData, error)
}

// Recorder persists per-page artifacts during a sweep.
type Recorder interface {
	SaveScreenshot(png []byte, filename string) (string, error)
	SavePageData(data models.PageData, filename string) (string, error)
}

// Options tunes a navigation sweep.
type Options struct {
	TakeScreenshots bool
	ExtractData     bool

	// Delay is the pause after each page settles, before capturing.
	Delay time.Duration

	// MaxLinks caps how many links are visited; 0 means all.
	MaxLinks int

	// Politeness, when set, rate-limits per domain and checks robots.txt.
	Politeness *Politeness
}

// Navigator visits each link in turn and returns to the origin page after
// every visit. Failures on individual links are recorded, not fatal.
type Navigator struct {
	pager Pager
	sink  Recorder
	opts  Options
}

func NewNavigator(pager Pager, sink Recorder, opts Options) *Navigator {
	return &Navigator{pager: pager, sink: sink, opts: opts}
}

// Sweep visits the given links in order. The tab ends up back at its
// original URL, including after per-link failures.
func (n *Navigator) Sweep(links []models.Link) ([]models.NavigationResult, error) {
	origin, err := n.pager.Location()
	if err != nil {
		return nil, fmt.Errorf("reading origin url: %w", err)
	}

	if n.opts.MaxLinks > 0 && len(links) > n.opts.MaxLinks {
		links = links[:n.opts.MaxLinks]
	}
	log.Info("starting navigation sweep", "links", len(links), "origin", origin)

	results := make([]models.NavigationResult, 0, len(links))
	for i, link := range links {
		results = append(results, n.visit(i, link))

		if err := n.pager.Navigate(origin); err != nil {
			log.Error("failed to return to origin, stopping sweep", "origin", origin, "err", err)
			return results, fmt.Errorf("returning to %s: %w", origin, err)
		}
	}

	log.Info("navigation sweep finished", "visited", len(results))
	return results, nil
}

func (n *Navigator) visit(index int, link models.Link) models.NavigationResult {
	result := models.NavigationResult{
		Index:     index,
		Link:      link,
		Timestamp: time.Now().UTC(),
	}
	fail := func(err error) models.NavigationResult {
		log.Warn("link visit failed", "index", index, "href", link.Href, "err", err)
		result.Error = err.Error()
		return result
	}

	if p := n.opts.Politeness; p != nil {
		if !p.Allowed(link.Href) {
			return fail(fmt.Errorf("disallowed by robots.txt: %s", link.Href))
		}
		if err := p.Wait(link.Href); err != nil {
			return fail(err)
		}
	}

	log.Info("visiting link", "index", index, "text", link.Text, "href", link.Href)
	if err := n.pager.Navigate(link.Href); err != nil {
		return fail(err)
	}
	if n.opts.Delay > 0 {
		time.Sleep(n.opts.Delay)
	}

	if loc, err := n.pager.Location(); err == nil {
		result.FinalURL = loc
	}
	if title, err := n.pager.Title(); err == nil {
		result.PageTitle = title
	}

	label := visitLabel(index, link.Text)

	if n.opts.TakeScreenshots {
		png, err := n.pager.Screenshot()
		if err != nil {
			return fail(err)
		}
		path, err := n.sink.SaveScreenshot(png, label+".png")
		if err != nil {
			return fail(err)
		}
		result.ScreenshotPath = path
	}

	if n.opts.ExtractData {
		data, err := n.pager.PageData()
		if err != nil {
			return fail(err)
		}
		path, err := n.sink.SavePageData(data, label+".json")
		if err != nil {
			return fail(err)
		}
		result.DataPath = path
	}

	return result
}

// visitLabel builds a filename stem like navigation_003_Sign_up from the
// link's position and text.
func visitLabel(index int, text string) string {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > 30 {
		text = string(runes[:30])
	}
	replacer := strings.NewReplacer(
		" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	text = replacer.Replace(text)
	if text == "" {
		text = "untitled"
	}
	return fmt.Sprintf("navigation_%03d_%s", index+1, text)
}
