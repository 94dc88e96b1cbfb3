package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const upsertCourse = `
INSERT INTO courses (id, code, name, term, class_code, program, instructor, schedule, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
ON CONFLICT (code) DO UPDATE SET
	name = EXCLUDED.name,
	term = EXCLUDED.term,
	class_code = EXCLUDED.class_code,
	program = EXCLUDED.program,
	instructor = EXCLUDED.instructor,
	schedule = EXCLUDED.schedule,
	updated_at = now()
RETURNING id, code, name, term, class_code, program, instructor, schedule, created_at, updated_at
`

type UpsertCourseParams struct {
	ID         string
	Code       string
	Name       string
	Term       string
	ClassCode  pgtype.Text
	Program    pgtype.Text
	Instructor pgtype.Text
	Schedule   pgtype.Text
}

func (q *Queries) UpsertCourse(ctx context.Context, arg UpsertCourseParams) (Course, error) {
	row := q.db.QueryRow(ctx, upsertCourse,
		arg.ID, arg.Code, arg.Name, arg.Term, arg.ClassCode, arg.Program, arg.Instructor, arg.Schedule)
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Term, &c.ClassCode, &c.Program, &c.Instructor, &c.Schedule, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const upsertGroup = `
INSERT INTO groups (id, course_id, name, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (course_id, name) DO UPDATE SET updated_at = now()
RETURNING id, course_id, name, created_at, updated_at
`

type UpsertGroupParams struct {
	ID       string
	CourseID string
	Name     string
}

func (q *Queries) UpsertGroup(ctx context.Context, arg UpsertGroupParams) (Group, error) {
	row := q.db.QueryRow(ctx, upsertGroup, arg.ID, arg.CourseID, arg.Name)
	var g Group
	err := row.Scan(&g.ID, &g.CourseID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

const deleteMembersOfGroup = `DELETE FROM members WHERE group_id = $1`

func (q *Queries) DeleteMembersOfGroup(ctx context.Context, groupID string) error {
	_, err := q.db.Exec(ctx, deleteMembersOfGroup, groupID)
	return err
}

const createMember = `
INSERT INTO members (id, group_id, name, role, created_at)
VALUES ($1, $2, $3, $4, now())
RETURNING id, group_id, name, role, created_at
`

type CreateMemberParams struct {
	ID      string
	GroupID string
	Name    string
	Role    string
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRow(ctx, createMember, arg.ID, arg.GroupID, arg.Name, arg.Role)
	var m Member
	err := row.Scan(&m.ID, &m.GroupID, &m.Name, &m.Role, &m.CreatedAt)
	return m, err
}

const getCourseByID = `
SELECT id, code, name, term, class_code, program, instructor, schedule, created_at, updated_at
FROM courses WHERE id = $1
`

func (q *Queries) GetCourseByID(ctx context.Context, id string) (Course, error) {
	row := q.db.QueryRow(ctx, getCourseByID, id)
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Term, &c.ClassCode, &c.Program, &c.Instructor, &c.Schedule, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCourses = `
SELECT id, code, name, term, class_code, program, instructor, schedule, created_at, updated_at
FROM courses
WHERE ($1::text = '' OR term = $1)
ORDER BY created_at DESC
`

func (q *Queries) ListCourses(ctx context.Context, term string) ([]Course, error) {
	rows, err := q.db.Query(ctx, listCourses, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Term, &c.ClassCode, &c.Program, &c.Instructor, &c.Schedule, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

const listGroupsByCourse = `
SELECT id, course_id, name, created_at, updated_at
FROM groups WHERE course_id = $1
ORDER BY name ASC
`

func (q *Queries) ListGroupsByCourse(ctx context.Context, courseID string) ([]Group, error) {
	rows, err := q.db.Query(ctx, listGroupsByCourse, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.CourseID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

const listMembersByGroup = `
SELECT id, group_id, name, role, created_at
FROM members WHERE group_id = $1
ORDER BY name ASC
`

func (q *Queries) ListMembersByGroup(ctx context.Context, groupID string) ([]Member, error) {
	rows, err := q.db.Query(ctx, listMembersByGroup, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Name, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const deleteCourse = `DELETE FROM courses WHERE id = $1`

// DeleteCourse removes a course and, through ON DELETE CASCADE, its groups and
// members. Administrative operation; never called by the scrape pipeline.
func (q *Queries) DeleteCourse(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteCourse, id)
	return err
}

const createScrapeLog = `
INSERT INTO scrape_logs (id, session_id, event_type, message, created_at)
VALUES ($1, $2, $3, $4, $5)
`

type CreateScrapeLogParams struct {
	ID        string
	SessionID pgtype.Text
	EventType string
	Message   pgtype.Text
	CreatedAt pgtype.Timestamptz
}

func (q *Queries) CreateScrapeLog(ctx context.Context, arg CreateScrapeLogParams) error {
	_, err := q.db.Exec(ctx, createScrapeLog, arg.ID, arg.SessionID, arg.EventType, arg.Message, arg.CreatedAt)
	return err
}
