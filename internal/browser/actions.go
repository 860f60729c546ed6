package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"chromesnap/internal/extract"
	"chromesnap/pkg/models"
)

// FormField pairs a selector with the value to set. Fields are applied in
// slice order so failures are deterministic; no rollback is attempted.
type FormField struct {
	Selector string
	Value    string
}

// DefaultLinkSelector is the harvest selector used when the caller does not
// narrow the sweep to specific link elements.
const DefaultLinkSelector = "a[href]"

// linksJS builds the harvest script for elements matching selector, in
// document order. Keys mirror the models.Link JSON shape so the result
// decodes directly. The selector is embedded as a JSON string literal so
// quotes in it cannot break out of the script.
func linksJS(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
	const links = Array.from(document.querySelectorAll(%s));
	return links.map(a => ({
		text: a.textContent.trim(),
		href: a.href || '',
		title: a.title || ''
	}));
})()`, quoted)
}

// Screenshot captures a full-page PNG of the attached tab.
func (s *Session) Screenshot() ([]byte, error) {
	if s.pageCtx == nil {
		return nil, fmt.Errorf("%w: screenshot: %w", ErrCapture, ErrNotConnected)
	}

	var buf []byte
	if err := s.run(s.pageCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return buf, nil
}

// PageData extracts the structured record for the current page: title, URL,
// meta tags, links, images, and visible text, stamped with the capture time.
func (s *Session) PageData() (models.PageData, error) {
	if s.pageCtx == nil {
		return models.PageData{}, fmt.Errorf("%w: page data: %w", ErrExtract, ErrNotConnected)
	}

	var pageURL, title, pageHTML string
	err := s.run(s.pageCtx,
		chromedp.Location(&pageURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	)
	if err != nil {
		return models.PageData{}, fmt.Errorf("%w: reading page: %v", ErrExtract, err)
	}

	data, err := extract.FromHTML(strings.NewReader(pageHTML), pageURL)
	if err != nil {
		return models.PageData{}, fmt.Errorf("%w: %v", ErrExtract, err)
	}

	// The DOM title read over the wire wins over whatever the raw HTML
	// carried; scripts may have rewritten it since load.
	if title != "" {
		data.Title = title
	}
	data.Timestamp = time.Now().UTC()

	log.Debug("extracted page data",
		"url", data.URL, "links", len(data.Links), "images", len(data.Images))
	return data, nil
}

// ExecuteScript evaluates the expression in the page context and returns its
// JSON-serializable result. A script that throws fails with ErrScript.
func (s *Session) ExecuteScript(script string) (models.ScriptValue, error) {
	if s.pageCtx == nil {
		return models.ScriptValue{}, fmt.Errorf("%w: execute script", ErrNotConnected)
	}

	var raw []byte
	if err := s.run(s.pageCtx, chromedp.Evaluate(script, &raw)); err != nil {
		var exc *runtime.ExceptionDetails
		if errors.As(err, &exc) {
			return models.ScriptValue{}, fmt.Errorf("%w: %v", ErrScript, exc)
		}
		return models.ScriptValue{}, fmt.Errorf("%w: %v", ErrScript, err)
	}
	return models.NewScriptValue(json.RawMessage(raw)), nil
}

// WaitForElement blocks until an element matching the selector is visible or
// the timeout elapses, in which case it fails with ErrWaitTimeout.
func (s *Session) WaitForElement(selector string, timeout time.Duration) error {
	if s.pageCtx == nil {
		return fmt.Errorf("%w: wait for %q", ErrNotConnected, selector)
	}

	ctx, cancel := context.WithTimeout(s.pageCtx, timeout)
	defer cancel()

	if err := s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %q after %s", ErrWaitTimeout, selector, timeout)
		}
		return fmt.Errorf("%w: %q: %v", ErrWaitTimeout, selector, err)
	}
	return nil
}

// ClickElement waits briefly for the selector and clicks it. A target that
// never appears fails with ErrElementNotFound.
func (s *Session) ClickElement(selector string) error {
	if s.pageCtx == nil {
		return fmt.Errorf("%w: click %q", ErrNotConnected, selector)
	}

	ctx, cancel := context.WithTimeout(s.pageCtx, 10*time.Second)
	defer cancel()

	if err := s.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %q", ErrElementNotFound, selector)
		}
		return fmt.Errorf("%w: %q: %v", ErrElementNotFound, selector, err)
	}
	return nil
}

// FillForm sets each field's value in order, stopping at the first selector
// that cannot be found. Fields already filled keep their values.
func (s *Session) FillForm(fields []FormField) error {
	if s.pageCtx == nil {
		return fmt.Errorf("%w: fill form", ErrNotConnected)
	}

	for _, f := range fields {
		ctx, cancel := context.WithTimeout(s.pageCtx, 10*time.Second)
		err := s.run(ctx,
			chromedp.WaitReady(f.Selector, chromedp.ByQuery),
			chromedp.SetValue(f.Selector, f.Value, chromedp.ByQuery),
		)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: form field %q", ErrElementNotFound, f.Selector)
			}
			return fmt.Errorf("%w: form field %q: %v", ErrElementNotFound, f.Selector, err)
		}
	}
	return nil
}

// Links returns link descriptors for every element matching selector (an
// empty selector harvests all anchors with an href), optionally keeping only
// those whose href matches the filter pattern.
func (s *Session) Links(selector, filterPattern string) ([]models.Link, error) {
	if s.pageCtx == nil {
		return nil, fmt.Errorf("%w: links", ErrNotConnected)
	}
	if selector == "" {
		selector = DefaultLinkSelector
	}

	var links []models.Link
	if err := s.run(s.pageCtx, chromedp.Evaluate(linksJS(selector), &links)); err != nil {
		return nil, fmt.Errorf("%w: collecting links with %q: %v", ErrExtract, selector, err)
	}

	if filterPattern == "" {
		return links, nil
	}
	re, err := regexp.Compile(filterPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad link filter %q: %v", ErrExtract, filterPattern, err)
	}
	filtered := links[:0]
	for _, l := range links {
		if re.MatchString(l.Href) {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

// Navigate loads url in the attached tab and waits for the body to be ready.
func (s *Session) Navigate(url string) error {
	if s.pageCtx == nil {
		return fmt.Errorf("%w: navigate", ErrNotConnected)
	}

	err := s.run(s.pageCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: navigating to %s: %v", ErrConnect, url, err)
	}
	return nil
}

// Location reports the attached tab's current URL.
func (s *Session) Location() (string, error) {
	if s.pageCtx == nil {
		return "", fmt.Errorf("%w: location", ErrNotConnected)
	}
	var loc string
	if err := s.run(s.pageCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("%w: reading location: %v", ErrExtract, err)
	}
	return loc, nil
}

// Title reports the attached tab's current document title.
func (s *Session) Title() (string, error) {
	if s.pageCtx == nil {
		return "", fmt.Errorf("%w: title", ErrNotConnected)
	}
	var title string
	if err := s.run(s.pageCtx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("%w: reading title: %v", ErrExtract, err)
	}
	return title, nil
}

// HTML reports the attached tab's rendered outer HTML.
func (s *Session) HTML() (string, error) {
	if s.pageCtx == nil {
		return "", fmt.Errorf("%w: html", ErrNotConnected)
	}
	var pageHTML string
	if err := s.run(s.pageCtx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("%w: reading html: %v", ErrExtract, err)
	}
	return pageHTML, nil
}
