package scraper

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
	"github.com/sodiqardianto/edlink-scrap/common"
	"github.com/sodiqardianto/edlink-scrap/common/config"
)

// Session owns one browser process and the single page a scrape run drives.
type Session struct {
	Page *rod.Page

	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Close shuts the browser down and releases the launcher's temp resources.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return err
}

// SessionProvider creates browser sessions for scrape runs.
type SessionProvider interface {
	Acquire(ctx context.Context) (*Session, error)
}

// SessionManager launches headless Chromium processes configured for the
// dashboard. One session per run; sessions are never shared.
type SessionManager struct {
	cfg config.ScraperConfig
}

// NewSessionManager creates a session manager.
func NewSessionManager(cfg config.ScraperConfig) *SessionManager {
	return &SessionManager{cfg: cfg}
}

// Acquire launches a browser and opens a blank page sized and identified the
// way the dashboard expects.
func (m *SessionManager) Acquire(ctx context.Context) (*Session, error) {
	l := launcher.New().
		Headless(m.cfg.Headless).
		NoSandbox(true).
		Set("disable-setuid-sandbox").
		Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("%w: %s", common.ErrBrowserLaunch, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("%w: %s", common.ErrBrowserLaunch, err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1366,
		Height:            768,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to set viewport")
	}

	if m.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: m.cfg.UserAgent}); err != nil {
			log.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	return &Session{
		Page:     page,
		browser:  browser,
		launcher: l,
	}, nil
}
