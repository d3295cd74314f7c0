package model

import "time"

// Role values stored on a User document. Anything else is rejected at
// creation time.
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string   `bson:"_id" json:"id"`
	Name         string   `bson:"name" json:"name"`
	Email        string   `bson:"email" json:"email"`
	PasswordHash string   `bson:"password" json:"-"`
	Role         string   `bson:"role" json:"role"`
	Courses      []string `bson:"courses" json:"courses,omitempty"`
}

type Course struct {
	ID           string   `bson:"_id" json:"id"`
	Subject      string   `bson:"subject" json:"subject"`
	Number       string   `bson:"number" json:"number"`
	Title        string   `bson:"title" json:"title"`
	Term         string   `bson:"term" json:"term"`
	InstructorID string   `bson:"instructorId" json:"instructorId"`
	Students     []string `bson:"students" json:"-"`
}

type Assignment struct {
	ID       string    `bson:"_id" json:"id"`
	CourseID string    `bson:"courseId" json:"courseId"`
	Title    string    `bson:"title" json:"title"`
	Points   int       `bson:"points" json:"points"`
	Due      time.Time `bson:"due" json:"due"`
}

type Submission struct {
	ID           string    `bson:"_id" json:"id"`
	AssignmentID string    `bson:"assignmentId" json:"assignmentId"`
	StudentID    string    `bson:"studentId" json:"studentId"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Grade        *float64  `bson:"grade,omitempty" json:"grade,omitempty"`
	File         string    `bson:"file" json:"file"`
}
