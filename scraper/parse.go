package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Default roles assigned when the page does not name one.
const (
	RoleLeader = "Leader"
	RoleMember = "Member"
)

var (
	// "Information Technology (NO)" -> name "Information Technology", suffix "NO"
	titleSuffixRe = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)$`)

	// numeric course code inside a class link
	classCodeRe = regexp.MustCompile(`/classes/(\d+)`)
)

// ParseCourseTitle splits a card title into the course name and the
// parenthesised class code. Titles without a suffix keep the full text as the
// name.
func ParseCourseTitle(title string) (name, classCode string) {
	title = strings.TrimSpace(title)
	if m := titleSuffixRe.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return title, ""
}

// ParseMemberLine splits a member row like "Jane Doe (Ketua)" into name and
// role. Rows without a parenthesised role return an empty role.
func ParseMemberLine(line string) Member {
	line = strings.TrimSpace(line)
	if m := titleSuffixRe.FindStringSubmatch(line); m != nil {
		return Member{Name: strings.TrimSpace(m[1]), Role: strings.TrimSpace(m[2])}
	}
	return Member{Name: line}
}

// AssignRoles fills in empty roles. The first member becomes the leader when
// no member already carries a leader role; everyone else defaults to a plain
// member. Explicit roles from the page are never overwritten.
func AssignRoles(members []Member) []Member {
	hasLeader := false
	for _, m := range members {
		role := strings.ToLower(m.Role)
		if strings.Contains(role, "leader") || strings.Contains(role, "ketua") {
			hasLeader = true
			break
		}
	}

	out := make([]Member, len(members))
	for i, m := range members {
		if strings.TrimSpace(m.Role) == "" {
			if !hasLeader && i == 0 {
				m.Role = RoleLeader
			} else {
				m.Role = RoleMember
			}
		}
		out[i] = m
	}
	return out
}

// courseCodeFromHref extracts the numeric course code from a class link.
func courseCodeFromHref(href string) string {
	if m := classCodeRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// ParseCourses extracts course cards from a dashboard HTML snapshot.
func ParseCourses(html string) ([]Course, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var cards *goquery.Selection
	for _, selector := range courseCardSelectors {
		cards = doc.Find(selector)
		if cards.Length() > 0 {
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		return nil, nil
	}

	var courses []Course
	cards.Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Attr("href")
		if href == "" {
			if link := card.Closest("a"); link.Length() > 0 {
				href, _ = link.Attr("href")
			}
		}
		code := courseCodeFromHref(href)

		name, classCode := ParseCourseTitle(card.Find(".card__title").First().Text())
		if code == "" || name == "" {
			return
		}

		course := Course{
			Code:      code,
			Name:      name,
			ClassCode: classCode,
			Program:   strings.TrimSpace(card.Find(".card__subtitle").First().Text()),
		}

		card.Find(".card__info_class-item").Each(func(_ int, item *goquery.Selection) {
			switch {
			case item.Find(".icon-user-mini").Length() > 0:
				var instructors []string
				if main := item.Find("p span").First(); main.Length() > 0 {
					if text := strings.TrimSpace(main.Text()); text != "" {
						instructors = append(instructors, text)
					}
				}
				if more := item.Find(".card__info_see-more").First(); more.Length() > 0 {
					if tooltip, ok := more.Attr("data-tooltip"); ok && strings.TrimSpace(tooltip) != "" {
						instructors = append(instructors, strings.TrimSpace(tooltip))
					}
				}
				if len(instructors) > 0 {
					course.Instructor = strings.Join(instructors, " dan ")
				}
			case item.Find(".icon-calendar-days-mini").Length() > 0:
				course.Schedule = strings.TrimSpace(item.Find("p span").First().Text())
			}
		})

		courses = append(courses, course)
	})

	return courses, nil
}

// ParseGroupBoxes extracts the group cards and the advertised total from a
// group teams page snapshot. The total falls back to the box count when the
// summary element is missing or not numeric.
func ParseGroupBoxes(html string) ([]GroupBox, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, err
	}

	var boxes []GroupBox
	doc.Find(selectorGroupBox).Each(func(i int, box *goquery.Selection) {
		name := strings.TrimSpace(box.Find(".team-name").First().Text())
		if name == "" {
			name = "Kelompok " + strconv.Itoa(i+1)
		}
		boxes = append(boxes, GroupBox{
			Name: name,
			Info: strings.TrimSpace(box.Find(".font-14.font-w-500.has-text-grey2").First().Text()),
		})
	})

	total := len(boxes)
	if summary := doc.Find("p .has-text-darkblue").First(); summary.Length() > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(summary.Text())); err == nil {
			total = n
		}
	}

	return boxes, total, nil
}

// ParseMembers extracts raw member rows from a group discussion page
// snapshot. Roles are left as found; callers run AssignRoles afterwards.
func ParseMembers(html string) ([]Member, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var members []Member
	doc.Find(".content-info").Each(func(_ int, info *goquery.Selection) {
		info.Find(".columns.is-mobile.is-tablet.is-dekstop.is-vcentered.is-gapless").Each(func(_ int, row *goquery.Selection) {
			name := row.Find(".font-14.font-w-400").First()
			if name.Length() == 0 {
				return
			}
			text := strings.TrimSpace(name.Text())
			if text == "" {
				return
			}
			members = append(members, ParseMemberLine(text))
		})
	})

	return members, nil
}
