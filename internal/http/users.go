package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/auth"
	"github.com/onichmath/Tarpaulin/internal/check"
	"github.com/onichmath/Tarpaulin/internal/model"
	"github.com/onichmath/Tarpaulin/internal/policy"
	"github.com/onichmath/Tarpaulin/internal/repository"
	"github.com/onichmath/Tarpaulin/internal/schema"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor := s.actor(r)

	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	role := stringField(body, "role")
	if role == "" {
		role = model.RoleStudent
	}
	if !model.ValidRole(role) {
		s.fail(w, apperr.Validation("Invalid value for field: role"))
		return
	}

	// The three checks are read-only and mutually independent, so they
	// run concurrently; the first failure wins.
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return schema.Validate(body, schema.User)
	})
	g.Go(func() error {
		// Only an admin may create privileged accounts.
		if role != model.RoleStudent {
			return policy.RequireAdmin(actor)
		}
		return nil
	})
	g.Go(func() error {
		return check.AssertNotExists(ctx, s.store, repository.CollUsers,
			map[string]interface{}{"email": body["email"]})
	})
	if err := g.Wait(); err != nil {
		s.fail(w, err)
		return
	}

	fields := schema.Extract(body, schema.User)
	password := stringField(fields, "password")
	if password == "" {
		s.fail(w, apperr.Validation("Invalid value for field: password"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.fail(w, apperr.Server(err))
		return
	}

	user := model.User{
		ID:           uuid.NewString(),
		Name:         stringField(fields, "name"),
		Email:        stringField(fields, "email"),
		PasswordHash: string(hash),
		Role:         role,
		Courses:      []string{},
	}
	if user.Name == "" || user.Email == "" {
		s.fail(w, apperr.Validation("The request body was either not present or did not contain all the required fields."))
		return
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id": user.ID,
		"links": map[string]string{
			"self": "/users/" + user.ID,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	email := stringField(body, "email")
	password := stringField(body, "password")
	if email == "" || password == "" {
		s.fail(w, apperr.Validation("The request body was either not present or did not contain all the required fields."))
		return
	}

	user, err := s.store.FindUserByEmail(r.Context(), email)
	if err != nil {
		// Credential failures are indistinguishable from unknown users.
		s.fail(w, apperr.Permission())
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.fail(w, apperr.Permission())
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID)
	if err != nil {
		s.fail(w, apperr.Server(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	// Role is resolved before the self-or-admin decision; role alone
	// cannot grant the self exception.
	actor := s.actor(r)
	userID := chi.URLParam(r, "userId")

	if err := policy.RequireSelfOrAdmin(actor, userID); err != nil {
		s.fail(w, err)
		return
	}

	user, err := s.store.FindUserByID(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}

	// Instructors list the courses they teach; students list the
	// courses they are enrolled in.
	courses := user.Courses
	if user.Role == model.RoleInstructor {
		courses, err = s.store.FindCourseIDsByInstructor(r.Context(), user.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
	}
	if courses == nil {
		courses = []string{}
	}

	courseLinks := make([]string, 0, len(courses))
	for _, courseID := range courses {
		courseLinks = append(courseLinks, "/courses/"+courseID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"role":    user.Role,
		"courses": courses,
		"links": map[string]interface{}{
			"self":    "/users/" + user.ID,
			"courses": courseLinks,
		},
	})
}
