package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sodiqardianto/edlink-scrap/common"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/repository"
)

type fakeSessions struct {
	err error
}

func (f *fakeSessions) Acquire(ctx context.Context) (*Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Session{}, nil
}

type fakeStages struct {
	loginResult   LoginResult
	loginErr      error
	semesterCalls int
	courses       []Course
	coursesErr    error
	groups        map[string]GroupsResult
	groupsErr     map[string]error
}

func (f *fakeStages) Login(ctx context.Context, s *Session, email, password string) (LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeStages) SelectSemester(ctx context.Context, s *Session, term string) (SemesterResult, error) {
	f.semesterCalls++
	return SemesterResult{Success: true, Selected: term}, nil
}

func (f *fakeStages) ExtractCourses(ctx context.Context, s *Session) ([]Course, error) {
	return f.courses, f.coursesErr
}

func (f *fakeStages) ExtractGroups(ctx context.Context, s *Session, courseCode string) (GroupsResult, error) {
	if err, ok := f.groupsErr[courseCode]; ok {
		return GroupsResult{}, err
	}
	if result, ok := f.groups[courseCode]; ok {
		return result, nil
	}
	return GroupsResult{Success: false, CourseCode: courseCode, Error: "no groups found for this course"}, nil
}

type fakeStore struct {
	mu           sync.Mutex
	courses      map[string]repository.Course
	members      map[string][]repository.Member
	failOnCourse string
	replaceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		courses: make(map[string]repository.Course),
		members: make(map[string][]repository.Member),
	}
}

func (f *fakeStore) UpsertCourse(ctx context.Context, arg repository.UpsertCourseParams) (repository.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if arg.Code == f.failOnCourse {
		return repository.Course{}, errors.New("database unavailable")
	}
	course := repository.Course{
		ID:   "course-" + arg.Code,
		Code: arg.Code,
		Name: arg.Name,
		Term: arg.Term,
	}
	f.courses[arg.Code] = course
	return course, nil
}

func (f *fakeStore) UpsertGroup(ctx context.Context, courseID, name string) (repository.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return repository.Group{
		ID:       "group-" + courseID + "-" + name,
		CourseID: courseID,
		Name:     name,
	}, nil
}

func (f *fakeStore) ReplaceMembers(ctx context.Context, groupID string, members []services.MemberInput) ([]repository.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	saved := make([]repository.Member, 0, len(members))
	for i, m := range members {
		saved = append(saved, repository.Member{
			ID:      fmt.Sprintf("%s-m%d", groupID, i),
			GroupID: groupID,
			Name:    m.Name,
			Role:    m.Role,
		})
	}
	f.members[groupID] = saved
	return saved, nil
}

func singleCourseStages() *fakeStages {
	return &fakeStages{
		loginResult: LoginResult{Success: true, URL: "https://edlink.id/panel"},
		courses:     []Course{{Code: "100", Name: "Algoritma"}},
		groups: map[string]GroupsResult{
			"100": {
				Success:       true,
				CourseCode:    "100",
				TotalGroups:   1,
				ScrapedGroups: 1,
				Groups: []Group{
					{Name: "Kelompok 1", Index: 1, Members: []Member{
						{Name: "Andi", Role: RoleLeader},
						{Name: "Siti", Role: RoleMember},
					}},
				},
			},
		},
	}
}

func runAndCollect(t *testing.T, runner *Runner, bus *Bus, params RunParams) (RunResult, []ProgressEvent, error) {
	t.Helper()
	ch, unsubscribe := bus.Subscribe(params.SessionID)
	defer unsubscribe()

	result, err := runner.Run(context.Background(), params)
	// CloseSession in the run's cleanup closes the channel.
	events := collectEvents(ch, 1000, 2*time.Second)
	return result, events, err
}

func statusSequence(events []ProgressEvent) []Status {
	statuses := make([]Status, 0, len(events))
	for _, event := range events {
		statuses = append(statuses, event.Status)
	}
	return statuses
}

func countStatus(events []ProgressEvent, status Status) int {
	n := 0
	for _, event := range events {
		if event.Status == status {
			n++
		}
	}
	return n
}

func countTerminal(events []ProgressEvent) int {
	n := 0
	for _, event := range events {
		if event.Status.IsTerminal() {
			n++
		}
	}
	return n
}

func TestRunHappyPathEventOrder(t *testing.T) {
	bus := NewBus()
	store := newFakeStore()
	runner := NewRunner(&fakeSessions{}, singleCourseStages(), store, bus)

	result, events, err := runAndCollect(t, runner, bus, RunParams{
		SessionID: "s1", Email: "a@b.c", Password: "pw", Term: "2024 Ganjil",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CoursesCount != 1 {
		t.Errorf("courses count = %d, want 1", result.CoursesCount)
	}
	if result.Term != "2024 Ganjil" {
		t.Errorf("term = %q", result.Term)
	}

	want := []Status{
		StatusInitializing,
		StatusLogin,
		StatusLoginSuccess,
		StatusScrapingCourses,
		StatusCoursesFound,
		StatusProcessingCourse,
		StatusScrapingGroups,
		StatusGroupProcessed,
		StatusCourseCompleted,
		StatusSaving,
		StatusCompleted,
		StatusCleanup,
	}
	got := statusSequence(events)
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if countTerminal(events) != 1 {
		t.Errorf("terminal events = %d, want exactly 1", countTerminal(events))
	}
}

func TestRunSkipsSemesterWhenTermEmpty(t *testing.T) {
	bus := NewBus()
	stages := singleCourseStages()
	runner := NewRunner(&fakeSessions{}, stages, newFakeStore(), bus)

	_, events, err := runAndCollect(t, runner, bus, RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stages.semesterCalls != 0 {
		t.Errorf("semester selection called %d times, want 0", stages.semesterCalls)
	}
	if got := statusSequence(events)[0]; got != StatusInitializing {
		t.Errorf("first event = %s, want %s", got, StatusInitializing)
	}
}

func TestRunBrowserLaunchFailure(t *testing.T) {
	bus := NewBus()
	runner := NewRunner(&fakeSessions{err: common.ErrBrowserLaunch}, singleCourseStages(), newFakeStore(), bus)

	ch, unsubscribe := bus.Subscribe("s1")
	defer unsubscribe()

	_, err := runner.Run(context.Background(), RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw"})
	if !errors.Is(err, common.ErrBrowserLaunch) {
		t.Fatalf("error = %v, want ErrBrowserLaunch", err)
	}

	events := collectEvents(ch, 1000, 2*time.Second)
	if countStatus(events, StatusError) != 1 {
		t.Errorf("error events = %d, want 1", countStatus(events, StatusError))
	}
	if countStatus(events, StatusCleanup) != 0 {
		t.Error("cleanup emitted although no browser was started")
	}
}

func TestRunLoginFailureIsFatal(t *testing.T) {
	bus := NewBus()
	stages := singleCourseStages()
	stages.loginResult = LoginResult{Success: false, Error: "invalid credentials"}
	store := newFakeStore()
	runner := NewRunner(&fakeSessions{}, stages, store, bus)

	_, events, err := runAndCollect(t, runner, bus, RunParams{SessionID: "s1", Email: "a@b.c", Password: "wrong"})
	if !errors.Is(err, common.ErrLoginFailed) {
		t.Fatalf("error = %v, want ErrLoginFailed", err)
	}
	if len(store.courses) != 0 {
		t.Error("courses persisted despite failed login")
	}
	if countTerminal(events) != 1 {
		t.Errorf("terminal events = %d, want 1", countTerminal(events))
	}
	if countStatus(events, StatusCleanup) != 1 {
		t.Error("cleanup not emitted after failed login")
	}
}

func TestRunNoCoursesIsFatal(t *testing.T) {
	bus := NewBus()
	stages := singleCourseStages()
	stages.courses = nil
	runner := NewRunner(&fakeSessions{}, stages, newFakeStore(), bus)

	_, events, err := runAndCollect(t, runner, bus, RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw", Term: "2024 Ganjil"})
	if !errors.Is(err, common.ErrNoCourses) {
		t.Fatalf("error = %v, want ErrNoCourses", err)
	}
	if countStatus(events, StatusError) != 1 {
		t.Errorf("error events = %d, want 1", countStatus(events, StatusError))
	}
}

func TestRunCourseFailureIsIsolated(t *testing.T) {
	bus := NewBus()
	stages := singleCourseStages()
	stages.courses = []Course{
		{Code: "100", Name: "Algoritma"},
		{Code: "200", Name: "Basis Data"},
	}
	stages.groups["200"] = GroupsResult{
		Success: true, CourseCode: "200", TotalGroups: 1, ScrapedGroups: 1,
		Groups: []Group{{Name: "Tim A", Index: 1, Members: []Member{{Name: "Budi", Role: RoleLeader}}}},
	}
	store := newFakeStore()
	store.failOnCourse = "100"
	runner := NewRunner(&fakeSessions{}, stages, store, bus)

	result, events, err := runAndCollect(t, runner, bus, RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw", Term: "2024 Ganjil"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CoursesCount != 1 {
		t.Errorf("courses count = %d, want 1 (failed course skipped)", result.CoursesCount)
	}
	if countStatus(events, StatusCourseError) != 1 {
		t.Errorf("course_error events = %d, want 1", countStatus(events, StatusCourseError))
	}
	if countStatus(events, StatusCourseCompleted) != 1 {
		t.Errorf("course_completed events = %d, want 1", countStatus(events, StatusCourseCompleted))
	}
	if countStatus(events, StatusCompleted) != 1 {
		t.Error("run did not complete despite per-course failure")
	}
}

func TestRunGroupExtractionFailureIsIsolated(t *testing.T) {
	bus := NewBus()
	stages := singleCourseStages()
	stages.courses = []Course{
		{Code: "100", Name: "Algoritma"},
		{Code: "200", Name: "Basis Data"},
	}
	stages.groupsErr = map[string]error{"200": errors.New("navigation timeout")}
	runner := NewRunner(&fakeSessions{}, stages, newFakeStore(), bus)

	result, events, err := runAndCollect(t, runner, bus, RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw", Term: "2024 Ganjil"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CoursesCount != 1 {
		t.Errorf("courses count = %d, want 1", result.CoursesCount)
	}
	if countStatus(events, StatusCourseError) != 1 {
		t.Errorf("course_error events = %d, want 1", countStatus(events, StatusCourseError))
	}
	if countStatus(events, StatusCompleted) != 1 {
		t.Error("run did not complete despite group extraction failure")
	}
}

func TestRunGroupWarningForCourseWithoutGroups(t *testing.T) {
	bus := NewBus()
	stages := singleCourseStages()
	stages.groups = map[string]GroupsResult{}
	runner := NewRunner(&fakeSessions{}, stages, newFakeStore(), bus)

	result, events, err := runAndCollect(t, runner, bus, RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw", Term: "2024 Ganjil"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countStatus(events, StatusGroupWarning) != 1 {
		t.Errorf("group_warning events = %d, want 1", countStatus(events, StatusGroupWarning))
	}
	if len(result.Courses) != 1 || len(result.Courses[0].Groups) != 0 {
		t.Errorf("unexpected course records: %+v", result.Courses)
	}
}

func TestRunMemberReplaceIsIdempotent(t *testing.T) {
	bus := NewBus()
	store := newFakeStore()
	runner := NewRunner(&fakeSessions{}, singleCourseStages(), store, bus)
	params := RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw", Term: "2024 Ganjil"}

	if _, err := runner.Run(context.Background(), params); err != nil {
		t.Fatal(err)
	}
	params.SessionID = "s2"
	if _, err := runner.Run(context.Background(), params); err != nil {
		t.Fatal(err)
	}

	if store.replaceCalls != 2 {
		t.Errorf("replace calls = %d, want 2", store.replaceCalls)
	}
	groupID := "group-course-100-Kelompok 1"
	if got := len(store.members[groupID]); got != 2 {
		t.Errorf("members after re-scrape = %d, want 2 (no duplicates)", got)
	}
}

func TestRunCancelledContext(t *testing.T) {
	bus := NewBus()
	runner := NewRunner(&fakeSessions{}, singleCourseStages(), newFakeStore(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, unsubscribe := bus.Subscribe("s1")
	defer unsubscribe()

	_, err := runner.Run(ctx, RunParams{SessionID: "s1", Email: "a@b.c", Password: "pw"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	events := collectEvents(ch, 1000, 2*time.Second)
	if countStatus(events, StatusError) != 1 {
		t.Errorf("error events = %d, want 1", countStatus(events, StatusError))
	}
}
