// Package roster tracks the human side of the workforce: which user
// ids are admins (alert recipients) and which hold a duty role. The
// escalation machine consults it for the stand-down rule; the alert
// dispatcher uses it as the recipient set.
package roster

// Admin is one alert recipient.
type Admin struct {
	ID    string
	Name  string
	Email string
}

// Roster is an immutable membership table loaded at startup.
type Roster struct {
	admins    []Admin
	adminByID map[string]Admin
	dutyByID  map[string]struct{}
}

// New builds a roster from admins and duty-role user ids.
func New(admins []Admin, dutyUsers []string) *Roster {
	r := &Roster{
		admins:    make([]Admin, len(admins)),
		adminByID: make(map[string]Admin, len(admins)),
		dutyByID:  make(map[string]struct{}, len(dutyUsers)),
	}
	copy(r.admins, admins)
	for _, a := range admins {
		r.adminByID[a.ID] = a
	}
	for _, id := range dutyUsers {
		r.dutyByID[id] = struct{}{}
	}
	return r
}

// IsAdmin reports whether userID is an admin.
func (r *Roster) IsAdmin(userID string) bool {
	_, ok := r.adminByID[userID]
	return ok
}

// OnDuty reports whether userID holds a duty role.
func (r *Roster) OnDuty(userID string) bool {
	_, ok := r.dutyByID[userID]
	return ok
}

// Protected reports whether userID is exempt from escalation strikes
// (admins and duty-role users are never struck).
func (r *Roster) Protected(userID string) bool {
	return r.IsAdmin(userID) || r.OnDuty(userID)
}

// Admins returns the alert recipient set in declaration order.
func (r *Roster) Admins() []Admin {
	out := make([]Admin, len(r.admins))
	copy(out, r.admins)
	return out
}
