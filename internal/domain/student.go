package domain

import "strings"

// Student is a student record as returned by GET /teacher/students.
type Student struct {
	ID          string  `json:"id"`
	Email       string  `json:"email,omitempty"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Grade       int     `json:"grade,omitempty"`
	TargetScore int     `json:"targetScore,omitempty"`
	Level       string  `json:"level,omitempty"`
	GroupID     *string `json:"groupId"`
	GroupName   string  `json:"groupName,omitempty"`
}

// FullName returns "First Last", falling back to whichever part is set.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// InGroup reports whether the student belongs to the group with the given ID.
func (s Student) InGroup(groupID string) bool {
	return s.GroupID != nil && *s.GroupID == groupID
}

// StudentCredentials are the generated login details of a newly created
// student. The password is only ever returned once, at creation.
type StudentCredentials struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddStudentsResult is the response of a bulk student creation.
type AddStudentsResult struct {
	GroupID     string               `json:"groupId"`
	GroupName   string               `json:"groupName"`
	Credentials []StudentCredentials `json:"credentials"`
}
