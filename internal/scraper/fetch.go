package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/tguilloux/surebet/internal/pkg/config"
)

// Fetcher renders a page in headless Chrome and returns its HTML.
// The bookmaker sites build their listings client-side, so a plain GET
// never sees the odds. One browser session at a time keeps memory sane
// on small hosts.
type Fetcher struct {
	mu            sync.Mutex
	timeout       time.Duration
	headless      bool
	userAgent     string
	screenshotDir string
	logger        *slog.Logger
}

func NewFetcher(cfg *config.ScraperConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		timeout:       cfg.Timeout(),
		headless:      cfg.Headless,
		userAgent:     cfg.UserAgent,
		screenshotDir: cfg.ScreenshotDir,
		logger:        logger,
	}
}

// HTML navigates to url, waits for the document to settle and returns the
// rendered markup. When a screenshot directory is configured it also drops
// a full-page capture named after tag, which is the only way to debug a
// selector table gone stale.
func (f *Fetcher) HTML(ctx context.Context, url, tag string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", f.headless))
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, f.timeout)
	defer cancelRun()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	}

	var shot []byte
	if f.screenshotDir != "" {
		tasks = append(tasks, chromedp.FullScreenshot(&shot, 80))
	}

	start := time.Now()
	if err := chromedp.Run(runCtx, tasks); err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	f.logger.Debug("page fetched", "url", url, "bytes", len(html), "took", time.Since(start))

	if len(shot) > 0 {
		f.saveScreenshot(tag, shot)
	}
	return html, nil
}

func (f *Fetcher) saveScreenshot(tag string, data []byte) {
	if err := os.MkdirAll(f.screenshotDir, 0o755); err != nil {
		f.logger.Warn("screenshot dir", "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s.png", tag, time.Now().Format("20060102_150405"))
	path := filepath.Join(f.screenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.logger.Warn("screenshot write failed", "path", path, "error", err)
	}
}
