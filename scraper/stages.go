package scraper

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sodiqardianto/edlink-scrap/common/config"
)

// protoMouseLeft keeps click call sites short.
var protoMouseLeft = proto.InputMouseButtonLeft

// Stages are the browser-driven phases of a scrape run. The interface exists
// so the orchestrator can be tested without a browser.
type Stages interface {
	// Login authenticates against the dashboard login page
	Login(ctx context.Context, s *Session, email, password string) (LoginResult, error)

	// SelectSemester switches the dashboard to the requested term
	SelectSemester(ctx context.Context, s *Session, term string) (SemesterResult, error)

	// ExtractCourses reads the course cards off the dashboard
	ExtractCourses(ctx context.Context, s *Session) ([]Course, error)

	// ExtractGroups opens each group of a course and reads its members
	ExtractGroups(ctx context.Context, s *Session, courseCode string) (GroupsResult, error)
}

// browserStages implements Stages on a live rod page.
type browserStages struct {
	cfg config.ScraperConfig
}

// NewBrowserStages creates the rod-backed Stages implementation.
func NewBrowserStages(cfg config.ScraperConfig) Stages {
	return &browserStages{cfg: cfg}
}

// typeText clicks the element and inserts the text one rune at a time. The
// dashboard's form bindings miss characters when text arrives in one burst.
func (b *browserStages) typeText(page *rod.Page, el *rod.Element, text string) error {
	if err := el.Click(protoMouseLeft, 1); err != nil {
		return err
	}
	for _, r := range text {
		if err := page.InsertText(string(r)); err != nil {
			return err
		}
		time.Sleep(b.cfg.TypeDelay)
	}
	return nil
}

// settle gives the page's dynamic content time to render, respecting ctx.
func (b *browserStages) settle(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
