package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/log"

	"chromesnap/internal/browser"
	"chromesnap/internal/config"
	"chromesnap/internal/session"
	"chromesnap/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}

	// Flags override environment configuration.
	host := flag.String("host", cfg.DebugHost, "Host of the Chrome debugging endpoint")
	port := flag.Int("port", cfg.DebugPort, "Chrome remote debugging port")
	output := flag.String("output", cfg.OutputDir, "Directory for screenshots and extracted data")
	tabIndex := flag.Int("tab", cfg.TabIndex, "Tab index to attach to (-1 picks the first real page)")
	tabURL := flag.String("tab-url", cfg.TabURL, "Attach to the first tab whose URL contains this string")
	navigate := flag.Int("navigate", 0, "Visit this many of the page's links, capturing each (0 disables)")
	selector := flag.String("selector", "", "CSS selector that picks the links to sweep (default all anchors)")
	linkFilter := flag.String("filter", "", "Regex applied to hrefs before a navigation sweep")
	waitFor := flag.String("wait-for", "", "Wait for this selector to be visible before capturing")
	script := flag.String("script", "", "JavaScript expression to evaluate after capture")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	opts := runOptions{
		host:       *host,
		port:       *port,
		output:     *output,
		tabIndex:   *tabIndex,
		tabURL:     *tabURL,
		navigate:   *navigate,
		selector:   *selector,
		linkFilter: *linkFilter,
		waitFor:    *waitFor,
		script:     *script,
	}
	if err := run(cfg, opts); err != nil {
		log.Fatal("capture failed", "err", err)
	}
}

type runOptions struct {
	host       string
	port       int
	output     string
	tabIndex   int
	tabURL     string
	navigate   int
	selector   string
	linkFilter string
	waitFor    string
	script     string
}

func run(cfg *config.Config, opts runOptions) error {
	sess := browser.New(browser.Options{
		Host:     opts.host,
		Port:     opts.port,
		TabIndex: opts.tabIndex,
		TabURL:   opts.tabURL,
	})

	log.Info("connecting to browser", "host", opts.host, "port", opts.port)
	if err := sess.Connect(context.Background()); err != nil {
		log.Error("make sure Chrome is running with --remote-debugging-port", "port", opts.port)
		return err
	}
	defer sess.Close()

	sink, err := storage.NewFileSink(opts.output)
	if err != nil {
		return err
	}

	if opts.waitFor != "" {
		if err := sess.WaitForElement(opts.waitFor, cfg.WaitTimeout); err != nil {
			return err
		}
	}

	png, err := sess.Screenshot()
	if err != nil {
		return err
	}
	if _, err := sink.SaveScreenshot(png, ""); err != nil {
		return err
	}

	data, err := sess.PageData()
	if err != nil {
		return err
	}
	if _, err := sink.SavePageData(data, ""); err != nil {
		return err
	}

	log.Info("page captured",
		"title", data.Title,
		"url", data.URL,
		"links", len(data.Links),
		"images", len(data.Images),
		"meta_tags", len(data.Meta),
	)

	if cfg.DatabaseURL != "" {
		pg, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pg.Close()
		if err := pg.SavePageData(data); err != nil {
			return err
		}
	}

	if opts.script != "" {
		value, err := sess.ExecuteScript(opts.script)
		if err != nil {
			return err
		}
		log.Info("script result", "kind", value.Kind(), "value", value.String())
	}

	if opts.navigate > 0 {
		return sweepLinks(cfg, sess, sink, opts.navigate, opts.selector, opts.linkFilter)
	}
	return nil
}

// sweepLinks visits up to max of the current page's links in a fresh tab so
// the user's original tab is left where it was.
func sweepLinks(cfg *config.Config, sess *browser.Session, sink *storage.FileSink, max int, selector, linkFilter string) error {
	links, err := sess.Links(selector, linkFilter)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		log.Warn("no links to visit", "selector", selector, "filter", linkFilter)
		return nil
	}

	origin, err := sess.Location()
	if err != nil {
		return err
	}

	tab, err := sess.NewTab(origin)
	if err != nil {
		return err
	}
	defer tab.Close()

	nav := session.NewNavigator(tab, sink, session.Options{
		TakeScreenshots: true,
		ExtractData:     true,
		Delay:           cfg.NavigateDelay,
		MaxLinks:        max,
		Politeness:      session.NewPoliteness(cfg.UserAgent, cfg.NavigateDelay),
	})

	results, err := nav.Sweep(links)
	if len(results) > 0 {
		if path, saveErr := sink.SaveNavigationResults(results); saveErr == nil {
			log.Info("navigation summary saved", "path", path)
		}
	}
	return err
}
