// Package repository persists the application's entities in a document
// store and defines the interfaces the HTTP layer depends on, so
// handlers can be exercised against fakes.
package repository

import (
	"context"

	"github.com/onichmath/Tarpaulin/internal/model"
)

// Collection names, shared with the conflict checker.
const (
	CollUsers       = "users"
	CollCourses     = "courses"
	CollAssignments = "assignments"
	CollSubmissions = "submissions"
)

type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	FindUserByID(ctx context.Context, id string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	FindUserRole(ctx context.Context, id string) (string, error)
	FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

type CourseStore interface {
	CreateCourse(ctx context.Context, course model.Course) error
	FindCourseByID(ctx context.Context, id string) (model.Course, error)
	FindCourses(ctx context.Context, criteria map[string]interface{}, skip, limit int) ([]model.Course, error)
	CountCourses(ctx context.Context, criteria map[string]interface{}) (int, error)
	UpdateCourse(ctx context.Context, id string, patch map[string]interface{}) error
	DeleteCourse(ctx context.Context, id string) error
	FindCourseInstructorID(ctx context.Context, courseID string) (string, error)
	CourseHasStudent(ctx context.Context, courseID, userID string) (bool, error)
	// UpdateEnrollment applies add/remove to the course's student list
	// and the students' course lists as one atomic operation.
	UpdateEnrollment(ctx context.Context, courseID string, add, remove []string) error
	FindCourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error)
}

type AssignmentStore interface {
	CreateAssignment(ctx context.Context, assignment model.Assignment) error
	FindAssignmentByID(ctx context.Context, id string) (model.Assignment, error)
	FindAssignmentIDsByCourse(ctx context.Context, courseID string) ([]string, error)
	UpdateAssignment(ctx context.Context, id string, patch map[string]interface{}) error
	// DeleteAssignment removes the assignment and all of its submissions.
	DeleteAssignment(ctx context.Context, id string) error
}

type SubmissionStore interface {
	CreateSubmission(ctx context.Context, submission model.Submission) error
	FindSubmissions(ctx context.Context, criteria map[string]interface{}, skip, limit int) ([]model.Submission, error)
	CountSubmissions(ctx context.Context, criteria map[string]interface{}) (int, error)
}

// Store is the full persistence surface the HTTP layer consumes.
type Store interface {
	UserStore
	CourseStore
	AssignmentStore
	SubmissionStore
	ExistsMatching(ctx context.Context, collection string, criteria map[string]interface{}) (bool, error)
}
