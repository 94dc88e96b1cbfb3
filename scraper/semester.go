package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/rs/zerolog/log"
	"github.com/samber/mo"
	"github.com/sodiqardianto/edlink-scrap/common"
)

// SelectSemester opens the semester dropdown, types the term into its search
// field and confirms with Enter. When the search field cannot be found it
// falls back to clicking the matching option directly. Selection is
// optimistic: failure to verify the result does not fail the run, only an
// unusable dropdown does.
func (b *browserStages) SelectSemester(ctx context.Context, s *Session, term string) (SemesterResult, error) {
	page := s.Page.Context(ctx)

	log.Info().Str("term", term).Msg("Selecting semester")
	if err := b.settle(ctx, b.cfg.SettleDelay); err != nil {
		return SemesterResult{}, err
	}

	dropdown, err := semesterDropdownChain.Find(page, b.cfg.ActionTimeout)
	if err != nil {
		return SemesterResult{}, fmt.Errorf("%w: %s", common.ErrSemesterWidget, err)
	}
	if err := dropdown.Click(protoMouseLeft, 1); err != nil {
		return SemesterResult{}, fmt.Errorf("%w: clicking dropdown: %s", common.ErrSemesterWidget, err)
	}

	if err := b.settle(ctx, 2*time.Second); err != nil {
		return SemesterResult{}, err
	}

	selected := false
	if field, err := semesterSearchChain.Find(page, 5*time.Second); err == nil {
		if err := b.searchAndConfirm(page, field, term); err == nil {
			selected = true
		} else {
			log.Debug().Err(err).Msg("Search field selection failed, trying option list")
		}
	}

	if !selected {
		if err := b.clickSemesterOption(page, term); err != nil {
			log.Warn().Err(err).Str("term", term).Msg("Could not select semester, continuing anyway")
		}
	}

	if err := b.settle(ctx, 2*time.Second); err != nil {
		return SemesterResult{}, err
	}

	verified := b.verifySelection(page)
	return SemesterResult{
		Success:  true,
		Selected: verified.OrElse(term),
	}, nil
}

// searchAndConfirm clears the dropdown's search field, types the term and
// presses Enter.
func (b *browserStages) searchAndConfirm(page *rod.Page, field *rod.Element, term string) error {
	if err := field.Focus(); err != nil {
		return err
	}
	if err := field.SelectAllText(); err == nil {
		_ = page.Keyboard.Press(input.Backspace)
	}
	for _, r := range term {
		if err := page.InsertText(string(r)); err != nil {
			return err
		}
		time.Sleep(b.cfg.TypeDelay)
	}
	time.Sleep(time.Second)
	return page.Keyboard.Press(input.Enter)
}

// clickSemesterOption scans the open dropdown's options for the term. An
// exact substring match wins; otherwise an option containing every token of
// the term is accepted.
func (b *browserStages) clickSemesterOption(page *rod.Page, term string) error {
	options, err := page.Elements(selectorSemesterOption)
	if err != nil {
		return fmt.Errorf("listing semester options: %w", err)
	}

	tokens := strings.Fields(term)
	var partial *rod.Element
	for _, option := range options {
		text, err := option.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if strings.Contains(text, term) {
			return option.Click(protoMouseLeft, 1)
		}
		if partial == nil && containsAllTokens(text, tokens) {
			partial = option
		}
	}
	if partial != nil {
		return partial.Click(protoMouseLeft, 1)
	}
	return fmt.Errorf("no semester option matched %q", term)
}

func containsAllTokens(text string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}

// verifySelection reads the dropdown's currently selected item, if any.
func (b *browserStages) verifySelection(page *rod.Page) mo.Option[string] {
	has, el, err := page.Has(selectorSemesterSelected)
	if err != nil || !has {
		return mo.None[string]()
	}
	text, err := el.Text()
	if err != nil {
		return mo.None[string]()
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return mo.None[string]()
	}
	log.Debug().Str("selected", trimmed).Msg("Verified semester selection")
	return mo.Some(trimmed)
}
