package workflow

import "github.com/hridoy-islam/watenycollage-sub000/internal/models"

// Actor identifies the user performing a workflow action. It is passed
// explicitly into every evaluation; the engine keeps no ambient session state.
type Actor struct {
	ID   uint
	Role string
}

// IsStaff reports whether the actor holds a teacher or admin role.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleTeacher || a.Role == models.RoleAdmin
}

// IsStudent reports whether the actor is a student.
func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}
