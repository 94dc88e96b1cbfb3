package services

import (
	"context"

	"github.com/sodiqardianto/edlink-scrap/repository"
)

// MemberInput is one member row as produced by the extractor.
type MemberInput struct {
	Name string
	Role string
}

// ScrapeStore defines the persistence boundary used by the run orchestrator.
type ScrapeStore interface {
	// UpsertCourse creates or updates a course keyed by its code
	UpsertCourse(ctx context.Context, arg repository.UpsertCourseParams) (repository.Course, error)

	// UpsertGroup creates or updates a group keyed by (courseID, name)
	UpsertGroup(ctx context.Context, courseID, name string) (repository.Group, error)

	// ReplaceMembers deletes the group's members and inserts the given set.
	// Group membership is a snapshot, not an append log.
	ReplaceMembers(ctx context.Context, groupID string, members []MemberInput) ([]repository.Member, error)
}

// GroupDetail is a group with its member rows.
type GroupDetail struct {
	repository.Group
	Members []repository.Member `json:"members"`
}

// CourseDetail is a course with its full group/member tree.
type CourseDetail struct {
	repository.Course
	Groups []GroupDetail `json:"groups"`
}

// CourseService defines the read/delete operations backing the HTTP API.
type CourseService interface {
	// ListCourses lists courses (optionally filtered by term) with nested groups and members
	ListCourses(ctx context.Context, term string) ([]CourseDetail, error)

	// GetCourse gets one course by ID with nested groups and members
	GetCourse(ctx context.Context, id string) (CourseDetail, error)

	// ListGroups lists the groups of a course with their members
	ListGroups(ctx context.Context, courseID string) ([]GroupDetail, error)

	// ListMembers lists the members of a group
	ListMembers(ctx context.Context, groupID string) ([]repository.Member, error)

	// DeleteCourse deletes a course and all of its groups and members
	DeleteCourse(ctx context.Context, id string) error
}
