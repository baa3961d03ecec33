// Package browser owns the playwright session lifecycle. The session is an
// exclusive resource: acquire it once per run and release it on every exit
// path.
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session bundles the playwright runtime, browser and a single page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	ctx     playwright.BrowserContext
	page    playwright.Page
}

// NewSession launches chromium and opens one Korean-locale page.
func NewSession(headless bool) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--window-size=1920,1080",
			"--lang=ko-KR",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Locale:    playwright.String("ko-KR"),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating page: %w", err)
	}

	return &Session{pw: pw, browser: browser, ctx: ctx, page: page}, nil
}

// Page returns the session's single page.
func (s *Session) Page() playwright.Page { return s.page }

// Close releases everything in reverse acquisition order. Safe to defer
// right after NewSession succeeds.
func (s *Session) Close() error {
	var firstErr error
	if s.ctx != nil {
		if err := s.ctx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
