package services

import (
	"context"

	"github.com/sodiqardianto/edlink-scrap/repository"
)

// CourseRepository is a PostgreSQL implementation of CourseService
type CourseRepository struct {
	db *repository.Queries
}

// NewCourseRepository creates a new PostgreSQL CourseService
func NewCourseRepository(db *repository.Queries) CourseService {
	return &CourseRepository{
		db: db,
	}
}

// ListCourses lists courses with their group/member tree, optionally filtered by term
func (r *CourseRepository) ListCourses(ctx context.Context, term string) ([]CourseDetail, error) {
	courses, err := r.db.ListCourses(ctx, term)
	if err != nil {
		return nil, err
	}

	details := make([]CourseDetail, 0, len(courses))
	for _, course := range courses {
		groups, err := r.groupDetails(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, CourseDetail{Course: course, Groups: groups})
	}

	return details, nil
}

// GetCourse gets one course by ID with its group/member tree
func (r *CourseRepository) GetCourse(ctx context.Context, id string) (CourseDetail, error) {
	course, err := r.db.GetCourseByID(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}

	groups, err := r.groupDetails(ctx, course.ID)
	if err != nil {
		return CourseDetail{}, err
	}

	return CourseDetail{Course: course, Groups: groups}, nil
}

// ListGroups lists the groups of a course with their members
func (r *CourseRepository) ListGroups(ctx context.Context, courseID string) ([]GroupDetail, error) {
	return r.groupDetails(ctx, courseID)
}

// ListMembers lists the members of a group
func (r *CourseRepository) ListMembers(ctx context.Context, groupID string) ([]repository.Member, error) {
	members, err := r.db.ListMembersByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return members, nil
}

// DeleteCourse deletes a course; groups and members go with it via cascade
func (r *CourseRepository) DeleteCourse(ctx context.Context, id string) error {
	return r.db.DeleteCourse(ctx, id)
}

func (r *CourseRepository) groupDetails(ctx context.Context, courseID string) ([]GroupDetail, error) {
	groups, err := r.db.ListGroupsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	details := make([]GroupDetail, 0, len(groups))
	for _, group := range groups {
		members, err := r.db.ListMembersByGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, GroupDetail{Group: group, Members: members})
	}

	return details, nil
}
