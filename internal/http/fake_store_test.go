package http

import (
	"context"
	"sort"
	"sync"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/model"
	"github.com/onichmath/Tarpaulin/internal/repository"
)

// fakeStore is an in-memory repository.Store for handler tests.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]model.User
	courses     map[string]model.Course
	assignments map[string]model.Assignment
	submissions map[string]model.Submission
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]model.User),
		courses:     make(map[string]model.Course),
		assignments: make(map[string]model.Assignment),
		submissions: make(map[string]model.Submission),
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, user model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperr.Conflict("A record with the specified fields already exists.")
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) FindUserByID(ctx context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return model.User{}, apperr.NotFound("User not found.")
	}
	return user, nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, apperr.NotFound("User not found.")
}

func (f *fakeStore) FindUserRole(ctx context.Context, id string) (string, error) {
	user, err := f.FindUserByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (f *fakeStore) FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCourse(ctx context.Context, course model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[course.ID] = course
	return nil
}

func (f *fakeStore) FindCourseByID(ctx context.Context, id string) (model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[id]
	if !ok {
		return model.Course{}, apperr.NotFound("Course not found.")
	}
	return course, nil
}

func courseMatches(course model.Course, criteria map[string]interface{}) bool {
	doc := map[string]interface{}{
		"subject":      course.Subject,
		"number":       course.Number,
		"term":         course.Term,
		"title":        course.Title,
		"instructorId": course.InstructorID,
	}
	for key, want := range criteria {
		if doc[key] != want {
			return false
		}
	}
	return true
}

func (f *fakeStore) matchingCourses(criteria map[string]interface{}) []model.Course {
	out := []model.Course{}
	for _, course := range f.courses {
		if courseMatches(course, criteria) {
			out = append(out, course)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) FindCourses(ctx context.Context, criteria map[string]interface{}, skip, limit int) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := f.matchingCourses(criteria)
	if skip >= len(matched) {
		return []model.Course{}, nil
	}
	matched = matched[skip:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeStore) CountCourses(ctx context.Context, criteria map[string]interface{}) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matchingCourses(criteria)), nil
}

func (f *fakeStore) UpdateCourse(ctx context.Context, id string, patch map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[id]
	if !ok {
		return apperr.NotFound("Course not found.")
	}
	for key, val := range patch {
		str, _ := val.(string)
		switch key {
		case "subject":
			course.Subject = str
		case "number":
			course.Number = str
		case "title":
			course.Title = str
		case "term":
			course.Term = str
		case "instructorId":
			course.InstructorID = str
		}
	}
	f.courses[id] = course
	return nil
}

func (f *fakeStore) DeleteCourse(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[id]; !ok {
		return apperr.NotFound("Course not found.")
	}
	delete(f.courses, id)
	for userID, user := range f.users {
		user.Courses = removeString(user.Courses, id)
		f.users[userID] = user
	}
	for assignmentID, assignment := range f.assignments {
		if assignment.CourseID == id {
			delete(f.assignments, assignmentID)
			for submissionID, submission := range f.submissions {
				if submission.AssignmentID == assignmentID {
					delete(f.submissions, submissionID)
				}
			}
		}
	}
	return nil
}

func (f *fakeStore) FindCourseInstructorID(ctx context.Context, courseID string) (string, error) {
	course, err := f.FindCourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	return course.InstructorID, nil
}

func (f *fakeStore) CourseHasStudent(ctx context.Context, courseID, userID string) (bool, error) {
	course, err := f.FindCourseByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	for _, id := range course.Students {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateEnrollment(ctx context.Context, courseID string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[courseID]
	if !ok {
		return apperr.NotFound("Course not found.")
	}
	for _, studentID := range add {
		course.Students = addString(course.Students, studentID)
		if user, ok := f.users[studentID]; ok {
			user.Courses = addString(user.Courses, courseID)
			f.users[studentID] = user
		}
	}
	for _, studentID := range remove {
		course.Students = removeString(course.Students, studentID)
		if user, ok := f.users[studentID]; ok {
			user.Courses = removeString(user.Courses, courseID)
			f.users[studentID] = user
		}
	}
	f.courses[courseID] = course
	return nil
}

func (f *fakeStore) FindCourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []string{}
	for _, course := range f.courses {
		if course.InstructorID == instructorID {
			ids = append(ids, course.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) CreateAssignment(ctx context.Context, assignment model.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeStore) FindAssignmentByID(ctx context.Context, id string) (model.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignment, ok := f.assignments[id]
	if !ok {
		return model.Assignment{}, apperr.NotFound("Assignment not found.")
	}
	return assignment, nil
}

func (f *fakeStore) FindAssignmentIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []string{}
	for _, assignment := range f.assignments {
		if assignment.CourseID == courseID {
			ids = append(ids, assignment.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) UpdateAssignment(ctx context.Context, id string, patch map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignment, ok := f.assignments[id]
	if !ok {
		return apperr.NotFound("Assignment not found.")
	}
	if title, ok := patch["title"].(string); ok {
		assignment.Title = title
	}
	if points, ok := patch["points"].(int); ok {
		assignment.Points = points
	}
	f.assignments[id] = assignment
	return nil
}

func (f *fakeStore) DeleteAssignment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assignments[id]; !ok {
		return apperr.NotFound("Assignment not found.")
	}
	delete(f.assignments, id)
	for submissionID, submission := range f.submissions {
		if submission.AssignmentID == id {
			delete(f.submissions, submissionID)
		}
	}
	return nil
}

func (f *fakeStore) CreateSubmission(ctx context.Context, submission model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[submission.ID] = submission
	return nil
}

func submissionMatches(submission model.Submission, criteria map[string]interface{}) bool {
	doc := map[string]interface{}{
		"assignmentId": submission.AssignmentID,
		"studentId":    submission.StudentID,
	}
	for key, want := range criteria {
		if doc[key] != want {
			return false
		}
	}
	return true
}

func (f *fakeStore) matchingSubmissions(criteria map[string]interface{}) []model.Submission {
	out := []model.Submission{}
	for _, submission := range f.submissions {
		if submissionMatches(submission, criteria) {
			out = append(out, submission)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) FindSubmissions(ctx context.Context, criteria map[string]interface{}, skip, limit int) ([]model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := f.matchingSubmissions(criteria)
	if skip >= len(matched) {
		return []model.Submission{}, nil
	}
	matched = matched[skip:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeStore) CountSubmissions(ctx context.Context, criteria map[string]interface{}) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matchingSubmissions(criteria)), nil
}

func (f *fakeStore) ExistsMatching(ctx context.Context, collection string, criteria map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch collection {
	case repository.CollUsers:
		for _, user := range f.users {
			if matchesAll(map[string]interface{}{"email": user.Email}, criteria) {
				return true, nil
			}
		}
	case repository.CollCourses:
		for _, course := range f.courses {
			if courseMatches(course, criteria) {
				return true, nil
			}
		}
	case repository.CollAssignments:
		for _, assignment := range f.assignments {
			doc := map[string]interface{}{
				"courseId": assignment.CourseID,
				"title":    assignment.Title,
			}
			if matchesAll(doc, criteria) {
				return true, nil
			}
		}
	case repository.CollSubmissions:
		for _, submission := range f.submissions {
			if submissionMatches(submission, criteria) {
				return true, nil
			}
		}
	}
	return false, nil
}

func matchesAll(doc, criteria map[string]interface{}) bool {
	for key, want := range criteria {
		if doc[key] != want {
			return false
		}
	}
	return true
}

func addString(list []string, val string) []string {
	for _, existing := range list {
		if existing == val {
			return list
		}
	}
	return append(list, val)
}

func removeString(list []string, val string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != val {
			out = append(out, existing)
		}
	}
	return out
}

var _ repository.Store = (*fakeStore)(nil)
