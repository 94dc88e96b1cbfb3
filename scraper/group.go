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

// ExtractGroups opens the group teams page of a course and walks every group
// box. Opening a box navigates away, so the page is re-loaded and the boxes
// re-acquired by index before each group. A failing group is recorded with an
// error and empty members; the loop continues.
func (b *browserStages) ExtractGroups(ctx context.Context, s *Session, courseCode string) (GroupsResult, error) {
	page := s.Page.Context(ctx)
	groupsURL := b.cfg.GroupTeamsURL(courseCode)

	log.Info().Str("course", courseCode).Str("url", groupsURL).Msg("Scraping group teams")
	if err := b.openGroupsPage(ctx, page, groupsURL); err != nil {
		return GroupsResult{}, err
	}

	html, err := page.HTML()
	if err != nil {
		return GroupsResult{}, err
	}
	boxes, total, err := ParseGroupBoxes(html)
	if err != nil {
		return GroupsResult{}, err
	}

	if len(boxes) == 0 {
		return GroupsResult{
			Success:    false,
			CourseCode: courseCode,
			Error:      "no groups found for this course",
		}, nil
	}

	log.Info().Int("total", total).Int("boxes", len(boxes)).Str("course", courseCode).Msg("Found group boxes")

	groups := make([]Group, 0, len(boxes))
	for idx := 0; idx < len(boxes); idx++ {
		if err := ctx.Err(); err != nil {
			return GroupsResult{}, err
		}

		group, err := b.scrapeGroupAt(ctx, page, groupsURL, idx)
		if err != nil {
			log.Warn().Err(err).Int("index", idx+1).Str("course", courseCode).Msg("Group scrape failed, continuing")
			groups = append(groups, Group{
				Name:    fmt.Sprintf("Kelompok %d", idx+1),
				Index:   idx + 1,
				Members: []Member{},
				Error:   err.Error(),
			})
			continue
		}
		groups = append(groups, group)

		// Pause between groups so the dashboard is not hammered.
		if err := b.settle(ctx, 2*time.Second); err != nil {
			return GroupsResult{}, err
		}
	}

	return GroupsResult{
		Success:       true,
		CourseCode:    courseCode,
		TotalGroups:   total,
		ScrapedGroups: len(groups),
		Groups:        groups,
	}, nil
}

// openGroupsPage navigates to the group teams page and lets it settle.
func (b *browserStages) openGroupsPage(ctx context.Context, page *rod.Page, groupsURL string) error {
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := page.Navigate(groupsURL); err != nil {
		return fmt.Errorf("navigating to group teams page: %w", err)
	}
	wait()
	return b.settle(ctx, b.cfg.SettleDelay)
}

// scrapeGroupAt re-acquires the group box at idx, reads its metadata, clicks
// it and parses the discussion page it leads to.
func (b *browserStages) scrapeGroupAt(ctx context.Context, page *rod.Page, groupsURL string, idx int) (Group, error) {
	// Clicking a box navigated away on the previous iteration; go back and
	// let the boxes render again.
	if idx > 0 {
		if err := b.openGroupsPage(ctx, page, groupsURL); err != nil {
			return Group{}, err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return Group{}, err
	}
	boxes, _, err := ParseGroupBoxes(html)
	if err != nil {
		return Group{}, err
	}
	if idx >= len(boxes) {
		return Group{}, fmt.Errorf("group box %d no longer present", idx+1)
	}
	meta := boxes[idx]

	elements, err := page.Elements(selectorGroupBox)
	if err != nil {
		return Group{}, fmt.Errorf("locating group boxes: %w", err)
	}
	if idx >= len(elements) {
		return Group{}, fmt.Errorf("group box %d not clickable", idx+1)
	}

	log.Debug().Str("group", meta.Name).Str("info", meta.Info).Msg("Opening group")
	if err := elements[idx].Click(protoMouseLeft, 1); err != nil {
		return Group{}, fmt.Errorf("clicking group box: %w", err)
	}

	if err := b.awaitDiscussionPage(ctx, page); err != nil {
		return Group{}, err
	}

	memberHTML, err := page.HTML()
	if err != nil {
		return Group{}, err
	}
	members, err := ParseMembers(memberHTML)
	if err != nil {
		return Group{}, err
	}
	members = AssignRoles(members)

	log.Debug().Str("group", meta.Name).Int("members", len(members)).Msg("Group scraped")
	return Group{
		Name:    meta.Name,
		Info:    meta.Info,
		Index:   idx + 1,
		Members: members,
	}, nil
}

// awaitDiscussionPage waits until the page URL reaches the group's discussion
// view. When the click did not navigate, a visible discussion link is tried
// once as recovery.
func (b *browserStages) awaitDiscussionPage(ctx context.Context, page *rod.Page) error {
	deadline := time.Now().Add(b.cfg.ActionTimeout)
	for {
		if strings.Contains(pageURL(page), "/discussion") {
			return b.settle(ctx, 2*time.Second)
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	has, link, err := page.Has(selectorDiscussionLink)
	if err != nil || !has {
		return fmt.Errorf("discussion page not reached and no discussion link found")
	}
	if err := link.Click(protoMouseLeft, 1); err != nil {
		return fmt.Errorf("clicking discussion link: %w", err)
	}
	if err := b.settle(ctx, b.cfg.SettleDelay); err != nil {
		return err
	}
	if !strings.Contains(pageURL(page), "/discussion") {
		return fmt.Errorf("discussion page not reached after recovery click")
	}
	return nil
}
