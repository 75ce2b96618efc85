package roster

import "stopro/roster/internal/domain"

// MembershipSnapshot is the prior state of a removal from a group.
type MembershipSnapshot struct {
	StudentID string `json:"studentId"`
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
}

// StudentSnapshot is the full record of a deleted student.
type StudentSnapshot struct {
	Student domain.Student `json:"student"`
}

// GroupSnapshot is what is needed to rebuild a deleted group.
type GroupSnapshot struct {
	GroupID   string   `json:"groupId"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}
