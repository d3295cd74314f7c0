package http

import (
	"encoding/csv"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/check"
	"github.com/onichmath/Tarpaulin/internal/model"
	"github.com/onichmath/Tarpaulin/internal/page"
	"github.com/onichmath/Tarpaulin/internal/policy"
	"github.com/onichmath/Tarpaulin/internal/repository"
	"github.com/onichmath/Tarpaulin/internal/schema"
)

func courseSummary(course model.Course) map[string]interface{} {
	return map[string]interface{}{
		"id":           course.ID,
		"subject":      course.Subject,
		"number":       course.Number,
		"title":        course.Title,
		"term":         course.Term,
		"instructorId": course.InstructorID,
		"links": map[string]string{
			"self": "/courses/" + course.ID,
		},
	}
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]interface{}{}
	filters := url.Values{}
	for _, key := range []string{"subject", "number", "term"} {
		if val := r.URL.Query().Get(key); val != "" {
			criteria[key] = val
			filters.Set(key, val)
		}
	}

	total, err := s.store.CountCourses(r.Context(), criteria)
	if err != nil {
		s.fail(w, err)
		return
	}

	requested := page.ParseRequested(r.URL.Query().Get("page"))
	pg := page.Paginate(requested, s.cfg.PageSize, total)

	courses, err := s.store.FindCourses(r.Context(), criteria, pg.Skip, s.cfg.PageSize)
	if err != nil {
		s.fail(w, err)
		return
	}

	summaries := make([]map[string]interface{}, 0, len(courses))
	for _, course := range courses {
		summaries = append(summaries, courseSummary(course))
	}

	base := "/courses"
	if encoded := filters.Encode(); encoded != "" {
		base += "?" + encoded
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses":    summaries,
		"pageNumber": pg.Number,
		"totalPages": pg.LastPage,
		"pageSize":   s.cfg.PageSize,
		"totalCount": total,
		"links":      page.Links(base, pg.Number, pg.LastPage),
	})
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	if err := policy.RequireAdmin(s.actor(r)); err != nil {
		s.fail(w, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := schema.Validate(body, schema.Course); err != nil {
		s.fail(w, err)
		return
	}

	fields := schema.Extract(body, schema.Course)

	// A course is identified by subject, number and term.
	err = check.AssertNotExists(r.Context(), s.store, repository.CollCourses, map[string]interface{}{
		"subject": fields["subject"],
		"number":  fields["number"],
		"term":    fields["term"],
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	instructorID := stringField(fields, "instructorId")
	role, err := s.store.FindUserRole(r.Context(), instructorID)
	if err != nil || role != model.RoleInstructor {
		s.fail(w, apperr.Validation("Invalid value for field: instructorId"))
		return
	}

	course := model.Course{
		ID:           uuid.NewString(),
		Subject:      stringField(fields, "subject"),
		Number:       stringField(fields, "number"),
		Title:        stringField(fields, "title"),
		Term:         stringField(fields, "term"),
		InstructorID: instructorID,
		Students:     []string{},
	}
	if err := s.store.CreateCourse(r.Context(), course); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id": course.ID,
		"links": map[string]string{
			"self": "/courses/" + course.ID,
		},
	})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.store.FindCourseByID(r.Context(), chi.URLParam(r, "courseId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courseSummary(course))
}

func (s *Server) handlePatchCourse(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(r)
	courseID := chi.URLParam(r, "courseId")

	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, actor, courseID); err != nil {
		s.fail(w, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	patch := schema.Extract(body, schema.Course)
	if len(patch) == 0 {
		s.fail(w, apperr.Validation("The request body was either not present or did not contain all the required fields."))
		return
	}

	// Reassigning the instructor is an admin decision.
	if _, ok := patch["instructorId"]; ok && !actor.IsAdmin() {
		s.fail(w, apperr.Permission())
		return
	}

	if err := s.store.UpdateCourse(r.Context(), courseID, patch); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": courseID,
		"links": map[string]string{
			"self": "/courses/" + courseID,
		},
	})
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := policy.RequireAdmin(s.actor(r)); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.DeleteCourse(r.Context(), chi.URLParam(r, "courseId")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCourseStudents(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, s.actor(r), courseID); err != nil {
		s.fail(w, err)
		return
	}

	course, err := s.store.FindCourseByID(r.Context(), courseID)
	if err != nil {
		s.fail(w, err)
		return
	}

	students := course.Students
	if students == nil {
		students = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

func (s *Server) handleUpdateEnrollment(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, s.actor(r), courseID); err != nil {
		s.fail(w, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	add := stringSlice(body, "add")
	remove := stringSlice(body, "remove")
	if len(add) == 0 && len(remove) == 0 {
		s.fail(w, apperr.Validation("The request body must contain an add or remove list of student ids."))
		return
	}

	// Admins pass the policy regardless of the course, so existence
	// still needs a check before writing.
	if _, err := s.store.FindCourseByID(r.Context(), courseID); err != nil {
		s.fail(w, err)
		return
	}

	if err := s.store.UpdateEnrollment(r.Context(), courseID, add, remove); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, s.actor(r), courseID); err != nil {
		s.fail(w, err)
		return
	}

	course, err := s.store.FindCourseByID(r.Context(), courseID)
	if err != nil {
		s.fail(w, err)
		return
	}

	students, err := s.store.FindUsersByIDs(r.Context(), course.Students)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+course.Term+"-"+course.Title+`-roster.csv"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"ID", "Name", "Email"})
	for _, student := range students {
		_ = writer.Write([]string{student.ID, student.Name, student.Email})
	}
	writer.Flush()
}

func (s *Server) handleGetCourseAssignments(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	if _, err := s.store.FindCourseByID(r.Context(), courseID); err != nil {
		s.fail(w, err)
		return
	}

	ids, err := s.store.FindAssignmentIDsByCourse(r.Context(), courseID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": ids})
}
