package domain

// Group is a study group owned by the signed-in teacher.
type Group struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TeacherID     string `json:"teacherId,omitempty"`
	InviteCode    string `json:"inviteCode,omitempty"`
	StudentsCount int    `json:"studentsCount"`
}

// FindGroup returns the group with the given ID, or nil.
func FindGroup(groups []Group, id string) *Group {
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i]
		}
	}
	return nil
}

// FindStudent returns the student with the given ID, or nil.
func FindStudent(students []Student, id string) *Student {
	for i := range students {
		if students[i].ID == id {
			return &students[i]
		}
	}
	return nil
}

// MemberIDs returns the IDs of all students that belong to groupID,
// preserving list order.
func MemberIDs(students []Student, groupID string) []string {
	var ids []string
	for _, s := range students {
		if s.InGroup(groupID) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
