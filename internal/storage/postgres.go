package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/jackc/pgx/v4/stdlib" // register the pgx driver

	"chromesnap/pkg/models"
)

// PostgresSink mirrors captured page data into a pages table, with the
// structured fields stored as JSONB. It is optional; the file sink remains
// the primary output.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgres connects and verifies the database is reachable.
func OpenPostgres(databaseURL string) (*PostgresSink, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// SavePageData inserts one capture row. Re-capturing the same URL keeps the
// earlier row (ON CONFLICT DO NOTHING), matching the file sink's behavior of
// never overwriting earlier timestamped artifacts.
func (s *PostgresSink) SavePageData(data models.PageData) error {
	meta, err := json.Marshal(data.Meta)
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	links, err := json.Marshal(data.Links)
	if err != nil {
		return fmt.Errorf("encoding links: %w", err)
	}
	images, err := json.Marshal(data.Images)
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO pages (url, title, meta, links, images, content_text, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO NOTHING`,
		data.URL, data.Title, meta, links, images, data.TextContent, data.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting page %s: %w", data.URL, err)
	}

	log.Info("page data stored", "url", data.URL, "captured_at", data.Timestamp.Format(time.RFC3339))
	return nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
