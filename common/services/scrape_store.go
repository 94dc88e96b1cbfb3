package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sodiqardianto/edlink-scrap/repository"
)

// ScrapeRepository is a PostgreSQL implementation of ScrapeStore
type ScrapeRepository struct {
	db *repository.Queries
}

// NewScrapeRepository creates a new PostgreSQL ScrapeStore
func NewScrapeRepository(db *repository.Queries) ScrapeStore {
	return &ScrapeRepository{
		db: db,
	}
}

// UpsertCourse creates or updates a course keyed by its code
func (r *ScrapeRepository) UpsertCourse(ctx context.Context, arg repository.UpsertCourseParams) (repository.Course, error) {
	if arg.ID == "" {
		arg.ID = uuid.New().String()
	}

	course, err := r.db.UpsertCourse(ctx, arg)
	if err != nil {
		return repository.Course{}, err
	}

	return course, nil
}

// UpsertGroup creates or updates a group keyed by (courseID, name)
func (r *ScrapeRepository) UpsertGroup(ctx context.Context, courseID, name string) (repository.Group, error) {
	group, err := r.db.UpsertGroup(ctx, repository.UpsertGroupParams{
		ID:       uuid.New().String(),
		CourseID: courseID,
		Name:     name,
	})
	if err != nil {
		return repository.Group{}, err
	}

	return group, nil
}

// ReplaceMembers deletes a group's member rows and inserts the given set
func (r *ScrapeRepository) ReplaceMembers(ctx context.Context, groupID string, members []MemberInput) ([]repository.Member, error) {
	if err := r.db.DeleteMembersOfGroup(ctx, groupID); err != nil {
		return nil, err
	}

	created := make([]repository.Member, 0, len(members))
	for _, m := range members {
		member, err := r.db.CreateMember(ctx, repository.CreateMemberParams{
			ID:      uuid.New().String(),
			GroupID: groupID,
			Name:    m.Name,
			Role:    m.Role,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, member)
	}

	return created, nil
}
