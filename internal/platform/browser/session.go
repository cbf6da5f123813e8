// Package browser wraps chromedp behind a small driver interface so connector
// crawl logic stays testable without a running Chrome.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultTimeout = 120 * time.Second

// SessionConfig controls the Chrome allocator.
type SessionConfig struct {
	// RemoteURL points at a remote Chrome instance; empty launches one.
	RemoteURL string
	Headless  bool
	// Timeout bounds one crawl session.
	Timeout time.Duration
	// UserAgent masks the headless fingerprint.
	UserAgent string
}

// Session owns a persistent allocator reused across page visits.
type Session struct {
	cfg         SessionConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewSession builds the allocator with fingerprint-masking flags.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	}

	s := &Session{cfg: cfg}
	if cfg.RemoteURL != "" {
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return s
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		// Mask the automation fingerprint storefronts sniff for.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return s
}

// DriverSource opens a fresh tab-scoped driver per crawl. The session
// timeout starts counting when the driver is opened, not before.
type DriverSource interface {
	NewDriver(ctx context.Context) (*ChromeDriver, context.CancelFunc)
}

var _ DriverSource = (*Session)(nil)

// NewDriver opens a browser tab context bound to the session allocator. The
// tab inherits cancellation from ctx and expires after the session timeout.
// The returned cancel func closes the tab.
func (s *Session) NewDriver(ctx context.Context) (*ChromeDriver, context.CancelFunc) {
	browserCtx, browserCancel := chromedp.NewContext(s.allocCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, s.cfg.Timeout)
	stop := context.AfterFunc(ctx, timeoutCancel)
	cancel := func() {
		stop()
		timeoutCancel()
		browserCancel()
	}
	return &ChromeDriver{ctx: timeoutCtx}, cancel
}

// Close tears down the allocator.
func (s *Session) Close() {
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
