// Package policy holds the pure authorization decisions. Each function
// either resolves (permitted) or fails with the uniform permission
// error; no reason is surfaced to the caller, so a rejected request
// cannot probe which resources exist.
package policy

import (
	"context"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/auth"
)

// CourseFacts supplies the ownership facts a decision needs. Lookups
// happen only when the actor is not already known to be permitted.
type CourseFacts interface {
	// FindCourseInstructorID returns the instructorId of a course, or a
	// NotFound error when the course does not exist.
	FindCourseInstructorID(ctx context.Context, courseID string) (string, error)
	// CourseHasStudent reports whether the course's student list
	// contains the given user id.
	CourseHasStudent(ctx context.Context, courseID, userID string) (bool, error)
}

func RequireAdmin(actor auth.Actor) error {
	if !actor.IsAdmin() {
		return apperr.Permission()
	}
	return nil
}

func RequireSelfOrAdmin(actor auth.Actor, targetUserID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsAuthenticated() && actor.UserID == targetUserID {
		return nil
	}
	return apperr.Permission()
}

// RequireCourseInstructorOrAdmin admits admins immediately; otherwise it
// fetches the course's instructorId and requires it to match the actor.
// A missing course also fails as a permission error, deliberately
// indistinguishable from an ownership mismatch.
func RequireCourseInstructorOrAdmin(ctx context.Context, facts CourseFacts, actor auth.Actor, courseID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsAuthenticated() {
		return apperr.Permission()
	}
	instructorID, err := facts.FindCourseInstructorID(ctx, courseID)
	if err != nil {
		return apperr.Permission()
	}
	if instructorID != actor.UserID {
		return apperr.Permission()
	}
	return nil
}

func RequireEnrolledStudent(ctx context.Context, facts CourseFacts, actor auth.Actor, courseID string) error {
	if !actor.IsAuthenticated() {
		return apperr.Permission()
	}
	enrolled, err := facts.CourseHasStudent(ctx, courseID, actor.UserID)
	if err != nil {
		return apperr.Permission()
	}
	if !enrolled {
		return apperr.Permission()
	}
	return nil
}
