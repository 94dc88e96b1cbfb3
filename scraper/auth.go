package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// Login navigates to the login page, fills in the credentials and submits the
// form. A wrong password returns Success=false with the page's error text; an
// unrecognisable login page returns an error.
func (b *browserStages) Login(ctx context.Context, s *Session, email, password string) (LoginResult, error) {
	page := s.Page.Context(ctx)

	log.Info().Str("url", b.cfg.LoginURL()).Msg("Navigating to login page")
	loadWait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := page.Navigate(b.cfg.LoginURL()); err != nil {
		return LoginResult{}, fmt.Errorf("navigating to login page: %w", err)
	}
	loadWait()

	emailEl, err := emailInputChain.Find(page, b.cfg.ActionTimeout)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login form did not load: %w", err)
	}
	if err := b.typeText(page, emailEl, email); err != nil {
		return LoginResult{}, fmt.Errorf("entering email: %w", err)
	}

	passwordEl, err := passwordInputChain.Find(page, b.cfg.ActionTimeout)
	if err != nil {
		return LoginResult{}, fmt.Errorf("password field not found: %w", err)
	}
	if err := b.typeText(page, passwordEl, password); err != nil {
		return LoginResult{}, fmt.Errorf("entering password: %w", err)
	}

	submitEl, err := b.findSubmitButton(page)
	if err != nil {
		return LoginResult{}, err
	}

	navWait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := submitEl.Click(protoMouseLeft, 1); err != nil {
		return LoginResult{}, fmt.Errorf("clicking login button: %w", err)
	}

	// The page either navigates away or shows an inline error banner.
	// Neither happening within the window is tolerated; the probes below
	// decide the outcome.
	b.awaitLoginResponse(ctx, page, navWait)

	if err := b.settle(ctx, b.cfg.SettleDelay); err != nil {
		return LoginResult{}, err
	}

	currentURL := pageURL(page)
	loggedIn := !strings.Contains(currentURL, "/login") ||
		loggedInProbeChain.Present(page) ||
		hasSessionCookie(page)
	if loggedIn {
		log.Info().Str("url", currentURL).Msg("Login successful")
		return LoginResult{Success: true, URL: currentURL}, nil
	}

	message := b.readErrorBanner(page)
	if message == "" {
		message = "login failed - unknown reason"
	}
	log.Warn().Str("url", currentURL).Str("reason", message).Msg("Login failed")
	return LoginResult{Success: false, URL: currentURL, Error: message}, nil
}

// findSubmitButton tries the selector chain first, then falls back to
// scanning button text for common login labels.
func (b *browserStages) findSubmitButton(page *rod.Page) (*rod.Element, error) {
	if el, err := submitButtonChain.Find(page, 3*time.Second); err == nil {
		return el, nil
	}

	buttons, err := page.Elements(`button, input[type="submit"]`)
	if err == nil {
		for _, btn := range buttons {
			text, err := btn.Text()
			if err != nil {
				continue
			}
			lower := strings.ToLower(text)
			if strings.Contains(lower, "login") || strings.Contains(lower, "masuk") || strings.Contains(lower, "sign in") {
				return btn, nil
			}
		}
	}

	return nil, fmt.Errorf("login button not found")
}

// awaitLoginResponse waits for the post-submit navigation or an inline error
// banner, whichever comes first, bounded by the navigation timeout.
func (b *browserStages) awaitLoginResponse(ctx context.Context, page *rod.Page, navWait func()) {
	navDone := make(chan struct{})
	go func() {
		navWait()
		close(navDone)
	}()

	deadline := time.Now().Add(b.cfg.NavigationTimeout)
	bannerDeadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case <-navDone:
			return
		case <-ctx.Done():
			return
		default:
		}
		if time.Now().After(deadline) {
			log.Debug().Msg("No navigation after login submit, continuing")
			return
		}
		if time.Now().Before(bannerDeadline) && errorBannerChain.Present(page) {
			return
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// readErrorBanner returns the first non-empty error banner text on the page.
func (b *browserStages) readErrorBanner(page *rod.Page) string {
	for _, selector := range errorBannerChain {
		has, el, err := page.Has(selector)
		if err != nil || !has {
			continue
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// hasSessionCookie reports whether the browser carries a cookie that looks
// like an authenticated session. Last resort probe for dashboards whose
// post-login markup matches none of the known selectors.
func hasSessionCookie(page *rod.Page) bool {
	cookies, err := page.Cookies(nil)
	if err != nil {
		return false
	}
	return cookieIndicatesSession(cookies)
}

// cookieIndicatesSession scans cookie names for a session or token cookie.
func cookieIndicatesSession(cookies []*proto.NetworkCookie) bool {
	for _, cookie := range cookies {
		name := strings.ToLower(cookie.Name)
		if strings.Contains(name, "session") || strings.Contains(name, "token") {
			return true
		}
	}
	return false
}

// pageURL reads the page's current URL, tolerating transient CDP errors.
func pageURL(page *rod.Page) string {
	info, err := page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}
