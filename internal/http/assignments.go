package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/auth"
	"github.com/onichmath/Tarpaulin/internal/check"
	"github.com/onichmath/Tarpaulin/internal/model"
	"github.com/onichmath/Tarpaulin/internal/page"
	"github.com/onichmath/Tarpaulin/internal/policy"
	"github.com/onichmath/Tarpaulin/internal/repository"
	"github.com/onichmath/Tarpaulin/internal/schema"
)

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(r)

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	// The course id gates authorization, so it is checked ahead of the
	// full schema pass.
	courseID := stringField(body, "courseId")
	if courseID == "" {
		s.fail(w, apperr.Validation("Missing required field: courseId"))
		return
	}
	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, actor, courseID); err != nil {
		s.fail(w, err)
		return
	}

	if err := schema.Validate(body, schema.Assignment); err != nil {
		s.fail(w, err)
		return
	}
	fields := schema.Extract(body, schema.Assignment)

	err = check.AssertNotExists(r.Context(), s.store, repository.CollAssignments, map[string]interface{}{
		"courseId": fields["courseId"],
		"title":    fields["title"],
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	points, ok := intField(fields, "points")
	if !ok {
		s.fail(w, apperr.Validation("Invalid value for field: points"))
		return
	}
	due, err := time.Parse(time.RFC3339, stringField(fields, "due"))
	if err != nil {
		s.fail(w, apperr.Validation("Invalid value for field: due"))
		return
	}

	assignment := model.Assignment{
		ID:       uuid.NewString(),
		CourseID: courseID,
		Title:    stringField(fields, "title"),
		Points:   points,
		Due:      due,
	}
	if err := s.store.CreateAssignment(r.Context(), assignment); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id": assignment.ID,
		"links": map[string]string{
			"self": "/assignments/" + assignment.ID,
		},
	})
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, err := s.store.FindAssignmentByID(r.Context(), chi.URLParam(r, "assignmentId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (s *Server) handlePatchAssignment(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(r)
	assignmentID := chi.URLParam(r, "assignmentId")

	assignment, err := s.store.FindAssignmentByID(r.Context(), assignmentID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, actor, assignment.CourseID); err != nil {
		s.fail(w, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	patch := schema.Extract(body, schema.Assignment)
	// An assignment stays attached to its course; submissions cannot be
	// moved by re-pointing courseId.
	delete(patch, "courseId")
	if len(patch) == 0 {
		s.fail(w, apperr.Validation("The request body was either not present or did not contain all the required fields."))
		return
	}

	if raw, ok := patch["points"]; ok {
		points, ok := intValue(raw)
		if !ok {
			s.fail(w, apperr.Validation("Invalid value for field: points"))
			return
		}
		patch["points"] = points
	}
	if raw, ok := patch["due"]; ok {
		str, _ := raw.(string)
		due, err := time.Parse(time.RFC3339, str)
		if err != nil {
			s.fail(w, apperr.Validation("Invalid value for field: due"))
			return
		}
		patch["due"] = due
	}

	if err := s.store.UpdateAssignment(r.Context(), assignmentID, patch); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": assignmentID,
		"links": map[string]string{
			"self": "/assignments/" + assignmentID,
		},
	})
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentId")

	assignment, err := s.store.FindAssignmentByID(r.Context(), assignmentID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, s.actor(r), assignment.CourseID); err != nil {
		s.fail(w, err)
		return
	}

	if err := s.store.DeleteAssignment(r.Context(), assignmentID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentId")

	assignment, err := s.store.FindAssignmentByID(r.Context(), assignmentID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := policy.RequireCourseInstructorOrAdmin(r.Context(), s.store, s.actor(r), assignment.CourseID); err != nil {
		s.fail(w, err)
		return
	}

	criteria := map[string]interface{}{"assignmentId": assignmentID}
	filters := url.Values{}
	if studentID := r.URL.Query().Get("studentId"); studentID != "" {
		criteria["studentId"] = studentID
		filters.Set("studentId", studentID)
	}

	total, err := s.store.CountSubmissions(r.Context(), criteria)
	if err != nil {
		s.fail(w, err)
		return
	}

	requested := page.ParseRequested(r.URL.Query().Get("page"))
	pg := page.Paginate(requested, s.cfg.PageSize, total)

	submissions, err := s.store.FindSubmissions(r.Context(), criteria, pg.Skip, s.cfg.PageSize)
	if err != nil {
		s.fail(w, err)
		return
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}

	base := "/assignments/" + assignmentID + "/submissions"
	if encoded := filters.Encode(); encoded != "" {
		base += "?" + encoded
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": submissions,
		"pageNumber":  pg.Number,
		"totalPages":  pg.LastPage,
		"pageSize":    s.cfg.PageSize,
		"totalCount":  total,
		"links":       page.Links(base, pg.Number, pg.LastPage),
	})
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(r)
	assignmentID := chi.URLParam(r, "assignmentId")

	assignment, err := s.store.FindAssignmentByID(r.Context(), assignmentID)
	if err != nil {
		s.fail(w, err)
		return
	}

	// Only enrolled students submit; instructors and admins grade
	// elsewhere.
	if actor.Role != auth.RoleStudent {
		s.fail(w, apperr.Permission())
		return
	}
	if err := policy.RequireEnrolledStudent(r.Context(), s.store, actor, assignment.CourseID); err != nil {
		s.fail(w, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := schema.Validate(body, schema.Submission); err != nil {
		s.fail(w, err)
		return
	}
	fields := schema.Extract(body, schema.Submission)

	submission := model.Submission{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		StudentID:    actor.UserID,
		Timestamp:    time.Now().UTC(),
		File:         stringField(fields, "file"),
	}
	if err := s.store.CreateSubmission(r.Context(), submission); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id": submission.ID,
		"links": map[string]string{
			"assignment": "/assignments/" + assignmentID,
		},
	})
}

func intField(body map[string]interface{}, key string) (int, bool) {
	return intValue(body[key])
}

func intValue(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
