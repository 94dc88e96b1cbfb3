package scraper

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ExtractCourses waits for the course cards to render and parses them out of
// an HTML snapshot. An empty dashboard returns an empty slice, not an error;
// the orchestrator decides whether that is fatal.
func (b *browserStages) ExtractCourses(ctx context.Context, s *Session) ([]Course, error) {
	page := s.Page.Context(ctx)

	// Cards load after the semester switch; missing cards may just mean an
	// empty term, so a timeout here is not fatal.
	if _, err := (Chain{courseCardSelectors[0]}).Find(page, b.cfg.ActionTimeout); err != nil {
		log.Debug().Msg("No course cards appeared within the wait window")
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	courses, err := ParseCourses(html)
	if err != nil {
		return nil, err
	}

	log.Info().Int("count", len(courses)).Msg("Extracted courses from dashboard")
	return courses, nil
}
