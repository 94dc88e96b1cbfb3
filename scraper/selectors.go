package scraper

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// Chain is an ordered list of CSS selectors tried in sequence. The dashboard
// markup changes between releases, so every lookup carries the variants that
// have been observed in the wild.
type Chain []string

// Find polls the page until any selector in the chain matches or the timeout
// elapses. Earlier selectors win over later ones within a poll cycle.
func (c Chain) Find(page *rod.Page, timeout time.Duration) (*rod.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		for _, selector := range c {
			has, el, err := page.Has(selector)
			if err == nil && has {
				return el, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("no element matched %v within %s", []string(c), timeout)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// Present reports whether any selector in the chain currently matches.
func (c Chain) Present(page *rod.Page) bool {
	for _, selector := range c {
		if has, _, err := page.Has(selector); err == nil && has {
			return true
		}
	}
	return false
}

var (
	emailInputChain = Chain{
		`input[type="email"]`,
		`input[name="email"]`,
		`input[placeholder*="email" i]`,
	}

	passwordInputChain = Chain{
		`input[type="password"]`,
		`input[name="password"]`,
	}

	submitButtonChain = Chain{
		`button[type="submit"]`,
		`input[type="submit"]`,
		`.btn-login`,
		`#login-btn`,
		`[data-testid="login-button"]`,
	}

	// Disjunctive probes; any single match means the user is logged in.
	loggedInProbeChain = Chain{
		`[data-testid="user-menu"]`,
		`.user-menu`,
		`.profile-menu`,
		`a[href*="logout"]`,
		`a[href*="keluar"]`,
		`.dashboard`,
		`#dashboard`,
	}

	errorBannerChain = Chain{
		`.error`,
		`.alert-danger`,
		`.alert-error`,
		`[class*="error"]`,
		`[class*="danger"]`,
		`.invalid-feedback`,
		`.form-error`,
	}

	semesterDropdownChain = Chain{
		`.choices`,
		`.choices__inner`,
		`[data-type="select-one"]`,
		`.form-control .choices`,
	}

	semesterSearchChain = Chain{
		`input[type="search"].choices__input.choices__input--cloned`,
		`input[type="search"][name="search_terms"]`,
		`input[type="search"].choices__input`,
		`.choices__input--cloned`,
		`.choices__input`,
		`input[type="search"]`,
		`.choices input`,
		`.choices__inner input`,
	}
)

const (
	selectorSemesterOption   = `.choices__item--choice`
	selectorSemesterSelected = `.choices__item--selectable[aria-selected="true"]`
	selectorGroupBox         = `.box.is-boxed-3.groupteams-box`
	selectorDiscussionLink   = `a[href*="/discussion"]`
)

// courseCardSelectors are tried in order when parsing the dashboard; the first
// selector with matches wins.
var courseCardSelectors = []string{
	`.card.card_custom-class-item`,
	`.card_custom-class-item`,
	`a[href*="/classes/"]`,
}
