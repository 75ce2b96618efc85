package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"stopro/roster/internal/domain"
)

type setGroupBody struct {
	GroupID *string `json:"groupId"`
}

type groupNameBody struct {
	Name string `json:"name"`
}

type addStudentsBody struct {
	StudentNames []string `json:"studentNames"`
}

// ListStudents returns the signed-in teacher's students.
func (c *Client) ListStudents(ctx context.Context) ([]domain.Student, error) {
	var out []domain.Student
	if err := c.doJSON(ctx, http.MethodGet, "/teacher/students", nil, &out, requestOpts{}); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if out == nil {
		out = []domain.Student{}
	}
	return out, nil
}

// SetStudentGroup moves a student into groupID, or out of any group when
// groupID is nil.
func (c *Client) SetStudentGroup(ctx context.Context, studentID string, groupID *string) error {
	path := "/teacher/students/" + url.PathEscape(studentID)
	if err := c.doJSON(ctx, http.MethodPut, path, setGroupBody{GroupID: groupID}, nil, requestOpts{}); err != nil {
		return fmt.Errorf("failed to update student %q: %w", studentID, err)
	}
	return nil
}

// DeleteStudent permanently deletes a student.
func (c *Client) DeleteStudent(ctx context.Context, studentID string) error {
	path := "/teacher/students/" + url.PathEscape(studentID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOpts{}); err != nil {
		return fmt.Errorf("failed to delete student %q: %w", studentID, err)
	}
	return nil
}

// ListGroups returns the signed-in teacher's groups.
func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	var out []domain.Group
	if err := c.doJSON(ctx, http.MethodGet, "/teacher/groups", nil, &out, requestOpts{}); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	if out == nil {
		out = []domain.Group{}
	}
	return out, nil
}

// CreateGroup creates a group. The server assigns a new ID and invite code.
func (c *Client) CreateGroup(ctx context.Context, name string) (*domain.Group, error) {
	var out domain.Group
	if err := c.doJSON(ctx, http.MethodPost, "/groups", groupNameBody{Name: name}, &out, requestOpts{}); err != nil {
		return nil, fmt.Errorf("failed to create group %q: %w", name, err)
	}
	return &out, nil
}

// RenameGroup changes a group's name.
func (c *Client) RenameGroup(ctx context.Context, groupID, name string) (*domain.Group, error) {
	var out domain.Group
	path := "/groups/" + url.PathEscape(groupID)
	if err := c.doJSON(ctx, http.MethodPut, path, groupNameBody{Name: name}, &out, requestOpts{}); err != nil {
		return nil, fmt.Errorf("failed to rename group %q: %w", groupID, err)
	}
	return &out, nil
}

// DeleteGroup deletes a group. Its students remain, without a group.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	path := "/groups/" + url.PathEscape(groupID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOpts{}); err != nil {
		return fmt.Errorf("failed to delete group %q: %w", groupID, err)
	}
	return nil
}

// AddStudents creates one student account per full name in the group and
// returns the generated credentials.
func (c *Client) AddStudents(ctx context.Context, groupID string, names []string) (*domain.AddStudentsResult, error) {
	var out domain.AddStudentsResult
	path := "/groups/" + url.PathEscape(groupID) + "/students"
	if err := c.doJSON(ctx, http.MethodPost, path, addStudentsBody{StudentNames: names}, &out, requestOpts{}); err != nil {
		return nil, fmt.Errorf("failed to add students to group %q: %w", groupID, err)
	}
	return &out, nil
}
