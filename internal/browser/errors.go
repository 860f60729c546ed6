package browser

import "errors"

// Failure classes for browser operations. Callers match with errors.Is; every
// error returned by this package wraps exactly one of these.
var (
	// ErrConnect covers an unreachable debugging endpoint or a failed attach.
	ErrConnect = errors.New("browser: connection failed")

	// ErrNoPages means the endpoint answered but exposed no usable page target.
	ErrNoPages = errors.New("browser: no page targets available")

	// ErrNotConnected is returned by operations invoked before Connect or
	// after Close.
	ErrNotConnected = errors.New("browser: not connected")

	// ErrCapture covers screenshot failures on a live session.
	ErrCapture = errors.New("browser: screenshot capture failed")

	// ErrExtract covers page-data extraction failures, including a page
	// handle that went stale mid-extraction.
	ErrExtract = errors.New("browser: page data extraction failed")

	// ErrScript means the evaluated script threw inside the page.
	ErrScript = errors.New("browser: script threw an exception")

	// ErrWaitTimeout means a selector wait exhausted its budget.
	ErrWaitTimeout = errors.New("browser: timed out waiting for element")

	// ErrElementNotFound means a click or form-fill target never appeared.
	ErrElementNotFound = errors.New("browser: element not found")
)
