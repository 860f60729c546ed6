package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// discoveryTimeout bounds the /json request so an unreachable port fails
// fast instead of hanging.
const discoveryTimeout = 5 * time.Second

// Target is one entry from the CDP discovery endpoint.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Options configures which browser to attach to and which tab to pick.
type Options struct {
	Host string
	Port int

	// TabURL selects the first page target whose URL contains it. It takes
	// precedence over TabIndex. TabIndex selects a page target by position
	// among page-type targets; a negative index means default selection:
	// the first page that is not about:blank, else the first page.
	TabURL   string
	TabIndex int
}

// Session owns the attachment to one tab of a running Chrome. A Session is
// for single-owner, sequential use; it holds no internal locking.
type Session struct {
	opts Options

	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc

	attached Target

	// run executes chromedp actions against the attached tab. It defaults to
	// chromedp.Run; tests substitute it to exercise operation semantics
	// without a live browser.
	run func(ctx context.Context, actions ...chromedp.Action) error
}

// New returns an unconnected session. Host defaults to localhost and a
// non-positive port to 9222.
func New(opts Options) *Session {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port <= 0 {
		opts.Port = 9222
	}
	return &Session{opts: opts, run: chromedp.Run}
}

// Connect enumerates open tabs via the discovery endpoint, picks one, and
// attaches to it. It fails with ErrConnect when the endpoint is unreachable
// and ErrNoPages when no page target matches.
func (s *Session) Connect(ctx context.Context) error {
	if s.pageCtx != nil {
		return fmt.Errorf("%w: already connected to %q", ErrConnect, s.attached.URL)
	}

	targets, err := discoverTargets(ctx, s.opts.Host, s.opts.Port)
	if err != nil {
		return err
	}
	log.Debug("discovered targets", "count", len(targets))

	picked, err := pickTarget(targets, s.opts)
	if err != nil {
		return err
	}
	log.Info("attaching to tab", "title", picked.Title, "url", picked.URL)

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx,
		fmt.Sprintf("http://%s:%d/", s.opts.Host, s.opts.Port))
	pageCtx, pageCancel := chromedp.NewContext(allocCtx,
		chromedp.WithTargetID(target.ID(picked.ID)))

	// Run with no actions to force the websocket attach now, so a bad
	// target fails here instead of on the first operation.
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		allocCancel()
		return fmt.Errorf("%w: attaching to target %s: %v", ErrConnect, picked.ID, err)
	}

	s.allocCtx, s.allocCancel = allocCtx, allocCancel
	s.pageCtx, s.pageCancel = pageCtx, pageCancel
	s.attached = picked
	return nil
}

// Attached reports the target picked at Connect time.
func (s *Session) Attached() (Target, bool) {
	return s.attached, s.pageCtx != nil
}

// NewTab opens a fresh tab in the attached browser, navigates it to url, and
// returns a session bound to it. Closing the child does not affect the parent.
func (s *Session) NewTab(url string) (*Session, error) {
	if s.pageCtx == nil {
		return nil, fmt.Errorf("%w: new tab", ErrNotConnected)
	}

	tabCtx, tabCancel := chromedp.NewContext(s.pageCtx)
	if err := s.run(tabCtx, chromedp.Navigate(url)); err != nil {
		tabCancel()
		return nil, fmt.Errorf("%w: opening tab for %s: %v", ErrConnect, url, err)
	}

	return &Session{
		opts:       s.opts,
		pageCtx:    tabCtx,
		pageCancel: tabCancel,
		attached:   Target{Type: "page", URL: url},
		run:        s.run,
	}, nil
}

// Close releases the page and allocator handles. It is idempotent and safe
// on a session that never connected.
func (s *Session) Close() {
	if s.pageCancel != nil {
		s.pageCancel()
		s.pageCancel = nil
		s.pageCtx = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
		s.allocCtx = nil
	}
}

func discoverTargets(ctx context.Context, host string, port int) ([]Target, error) {
	client := &http.Client{Timeout: discoveryTimeout}

	url := fmt.Sprintf("http://%s:%d/json", host, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building discovery request: %v", ErrConnect, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unreachable: %v", ErrConnect, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: discovery endpoint returned %d", ErrConnect, resp.StatusCode)
	}

	var targets []Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("%w: decoding discovery response: %v", ErrConnect, err)
	}
	return targets, nil
}

// pickTarget applies the tab selection rules to the discovered target list.
func pickTarget(targets []Target, opts Options) (Target, error) {
	var pages []Target
	for _, t := range targets {
		if t.Type == "page" {
			pages = append(pages, t)
		}
	}
	if len(pages) == 0 {
		return Target{}, fmt.Errorf("%w: %d targets, none of type page", ErrNoPages, len(targets))
	}

	if opts.TabURL != "" {
		for _, t := range pages {
			if strings.Contains(t.URL, opts.TabURL) {
				return t, nil
			}
		}
		return Target{}, fmt.Errorf("%w: no page URL contains %q", ErrNoPages, opts.TabURL)
	}

	if opts.TabIndex >= 0 {
		if opts.TabIndex >= len(pages) {
			return Target{}, fmt.Errorf("%w: tab index %d out of range (%d pages)",
				ErrNoPages, opts.TabIndex, len(pages))
		}
		return pages[opts.TabIndex], nil
	}

	for _, t := range pages {
		if t.URL != "about:blank" {
			return t, nil
		}
	}
	return pages[0], nil
}
