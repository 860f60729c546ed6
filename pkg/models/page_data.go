package models

import "time"

// Link is one anchor element found on a page, in document order.
type Link struct {
	Text  string `json:"text"`
	Href  string `json:"href"`
	Title string `json:"title"`
}

// Image is one img element found on a page, in document order.
type Image struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Title string `json:"title"`
}

// PageData is the structured extraction record for a single page capture.
// It is immutable once produced and is written verbatim to disk.
type PageData struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Meta        map[string]string `json:"meta"`
	Links       []Link            `json:"links"`
	Images      []Image           `json:"images"`
	TextContent string            `json:"text_content"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NavigationResult records the outcome of visiting one link during a
// navigation sweep. The error is kept as text so the record stays serializable.
type NavigationResult struct {
	Index          int       `json:"index"`
	Link           Link      `json:"link"`
	FinalURL       string    `json:"final_url,omitempty"`
	PageTitle      string    `json:"page_title,omitempty"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	DataPath       string    `json:"data_path,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
