package scraper

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sodiqardianto/edlink-scrap/common"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/repository"
)

// RunParams are the inputs of one scrape run.
type RunParams struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	Term      string `json:"term"`
}

// GroupRecord is a persisted group with its persisted members. Error carries
// the extraction failure when the group could not be opened.
type GroupRecord struct {
	repository.Group
	Members []repository.Member `json:"members"`
	Error   string              `json:"error,omitempty"`
}

// CourseRecord is a persisted course with its persisted group tree.
type CourseRecord struct {
	repository.Course
	Groups []GroupRecord `json:"groups"`
}

// RunResult is the outcome of a completed scrape run.
type RunResult struct {
	Term            string         `json:"term"`
	CoursesCount    int            `json:"courses_count"`
	Courses         []CourseRecord `json:"courses"`
	DurationSeconds int            `json:"duration_seconds"`
}

// Runner orchestrates a full scrape: login, semester selection, course
// extraction, per-course group extraction and persistence, with progress
// events along the way.
type Runner struct {
	sessions SessionProvider
	stages   Stages
	store    services.ScrapeStore
	bus      *Bus
}

// NewRunner creates a runner. bus may be nil when no progress reporting is
// wanted.
func NewRunner(sessions SessionProvider, stages Stages, store services.ScrapeStore, bus *Bus) *Runner {
	return &Runner{
		sessions: sessions,
		stages:   stages,
		store:    store,
		bus:      bus,
	}
}

// Run executes one scrape end to end. Login failure, an unusable browser, an
// unusable semester widget and an empty dashboard are fatal; a failing course
// or group is recorded and skipped. Exactly one terminal event (completed or
// error) is emitted, followed by a cleanup event once the browser is gone.
func (r *Runner) Run(ctx context.Context, params RunParams) (RunResult, error) {
	start := time.Now()

	emit := func(status Status, message string, data map[string]any) {
		r.bus.Emit(ProgressEvent{
			SessionID: params.SessionID,
			Status:    status,
			Message:   message,
			Data:      data,
		})
	}
	fail := func(err error) (RunResult, error) {
		emit(StatusError, "Error: "+err.Error(), nil)
		return RunResult{}, err
	}

	emit(StatusInitializing, "Starting browser...", nil)
	session, err := r.sessions.Acquire(ctx)
	if err != nil {
		result, runErr := fail(err)
		r.bus.CloseSession(params.SessionID)
		return result, runErr
	}

	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Str("session_id", params.SessionID).Msg("Failed to close browser session")
		}
		emit(StatusCleanup, "Browser closed, run finished", nil)
		r.bus.CloseSession(params.SessionID)
	}()

	emit(StatusLogin, "Logging in...", nil)
	loginResult, err := r.stages.Login(ctx, session, params.Email, params.Password)
	if err != nil {
		return fail(err)
	}
	if !loginResult.Success {
		return fail(fmt.Errorf("%w: %s", common.ErrLoginFailed, loginResult.Error))
	}
	emit(StatusLoginSuccess, "Login successful, selecting semester...", nil)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if params.Term != "" {
		log.Info().Str("term", params.Term).Str("session_id", params.SessionID).Msg("Selecting semester")
		if _, err := r.stages.SelectSemester(ctx, session, params.Term); err != nil {
			return fail(err)
		}
	}

	emit(StatusScrapingCourses, "Extracting course data...", nil)
	courses, err := r.stages.ExtractCourses(ctx, session)
	if err != nil {
		return fail(err)
	}
	if len(courses) == 0 {
		return fail(common.ErrNoCourses)
	}
	emit(StatusCoursesFound, fmt.Sprintf("Found %d courses", len(courses)), map[string]any{
		"total_courses": len(courses),
	})

	records := make([]CourseRecord, 0, len(courses))
	for i, course := range courses {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		progress := int(math.Round(float64(i+1) / float64(len(courses)) * 100))
		emit(StatusProcessingCourse,
			fmt.Sprintf("Processing course: %s (%d/%d)", course.Name, i+1, len(courses)),
			map[string]any{"current_course": course.Name, "progress": progress})

		record, err := r.processCourse(ctx, session, course, params.Term, emit)
		if err != nil {
			if ctx.Err() != nil {
				return fail(err)
			}
			log.Error().Err(err).Str("course", course.Name).Msg("Course processing failed, continuing")
			emit(StatusCourseError, fmt.Sprintf("Error processing course %s: %v", course.Name, err), nil)
			continue
		}
		records = append(records, record)
		emit(StatusCourseCompleted,
			fmt.Sprintf("Course %s processed (%d groups)", course.Name, len(record.Groups)), nil)
	}

	emit(StatusSaving, "Finalizing stored data...", nil)

	result := RunResult{
		Term:            params.Term,
		CoursesCount:    len(records),
		Courses:         records,
		DurationSeconds: int(math.Round(time.Since(start).Seconds())),
	}
	emit(StatusCompleted, "Scrape finished", map[string]any{
		"courses_count":    result.CoursesCount,
		"duration_seconds": result.DurationSeconds,
	})
	return result, nil
}

// processCourse persists the course, extracts its groups and persists each
// group with a full member replacement.
func (r *Runner) processCourse(ctx context.Context, session *Session, course Course, term string, emit func(Status, string, map[string]any)) (CourseRecord, error) {
	saved, err := r.store.UpsertCourse(ctx, repository.UpsertCourseParams{
		Code:       course.Code,
		Name:       course.Name,
		Term:       term,
		ClassCode:  textOrNull(course.ClassCode),
		Program:    textOrNull(course.Program),
		Instructor: textOrNull(course.Instructor),
		Schedule:   textOrNull(course.Schedule),
	})
	if err != nil {
		return CourseRecord{}, fmt.Errorf("saving course: %w", err)
	}

	emit(StatusScrapingGroups, "Scraping groups for: "+course.Name, nil)
	groupsResult, err := r.stages.ExtractGroups(ctx, session, course.Code)
	if err != nil {
		return CourseRecord{}, err
	}

	record := CourseRecord{Course: saved, Groups: []GroupRecord{}}
	if !groupsResult.Success {
		emit(StatusGroupWarning, "No groups found for course: "+course.Name, nil)
		return record, nil
	}

	for _, group := range groupsResult.Groups {
		savedGroup, err := r.store.UpsertGroup(ctx, saved.ID, group.Name)
		if err != nil {
			return CourseRecord{}, fmt.Errorf("saving group %s: %w", group.Name, err)
		}

		inputs := lo.Map(group.Members, func(m Member, _ int) services.MemberInput {
			return services.MemberInput{Name: m.Name, Role: m.Role}
		})
		members, err := r.store.ReplaceMembers(ctx, savedGroup.ID, inputs)
		if err != nil {
			return CourseRecord{}, fmt.Errorf("saving members of group %s: %w", group.Name, err)
		}

		record.Groups = append(record.Groups, GroupRecord{
			Group:   savedGroup,
			Members: members,
			Error:   group.Error,
		})
		emit(StatusGroupProcessed,
			fmt.Sprintf("Group %s processed (%d members)", group.Name, len(members)), nil)
	}

	return record, nil
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
