package auth

import (
	"context"
	"strings"
)

// Role of the actor behind a request. RoleAnonymous marks a request that
// could not be authenticated; it is distinct from RoleStudent so endpoint
// policies can tell "not logged in" apart from "is a student".
const (
	RoleAnonymous  = "anonymous"
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Actor is the resolved identity and role for a single request. It lives
// for the request only and is never persisted.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool         { return a.Role == RoleAdmin }
func (a Actor) IsAuthenticated() bool { return a.Role != RoleAnonymous }

var Anonymous = Actor{Role: RoleAnonymous}

// RoleFinder looks up the stored role for a user id.
type RoleFinder interface {
	FindUserRole(ctx context.Context, userID string) (string, error)
}

type Resolver struct {
	secret string
	issuer string
	users  RoleFinder
}

func NewResolver(secret, issuer string, users RoleFinder) *Resolver {
	return &Resolver{secret: secret, issuer: issuer, users: users}
}

// Resolve derives the actor for a request from its Authorization header.
// It never fails outward: a missing, malformed or expired token, or an
// unknown user id, all degrade to the anonymous actor. Rejection, if any,
// is the job of the authorization policy downstream.
func (r *Resolver) Resolve(ctx context.Context, authorizationHeader string) Actor {
	token := BearerToken(authorizationHeader)
	if token == "" {
		return Anonymous
	}

	claims, err := ParseToken(r.secret, r.issuer, token)
	if err != nil {
		return Anonymous
	}

	role, err := r.users.FindUserRole(ctx, claims.UserID)
	if err != nil {
		return Anonymous
	}

	return Actor{UserID: claims.UserID, Role: role}
}

// BearerToken extracts the token from an "Authorization: Bearer x" header.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
