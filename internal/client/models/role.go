package models

// Role is the role string reported by the dashboard endpoint.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleProfessor     Role = "professor"
	RoleStudent       Role = "student"

	// RoleUnknown stands for every role string the client does not know,
	// including the server's generic "user".
	RoleUnknown Role = ""
)

// ParseRole maps a server role string onto the whitelist. Matching is exact.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdministrator, RoleProfessor, RoleStudent:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// DashboardContext selects which dashboard, and therefore which data, a
// session may open.
type DashboardContext int

const (
	// ContextNeutral grants no collections. It is the zero value.
	ContextNeutral DashboardContext = iota
	ContextAdministrator
	ContextProfessor
	ContextStudent
)

// ContextFor returns the dashboard context for r. Unknown roles map to
// ContextNeutral.
func ContextFor(r Role) DashboardContext {
	switch r {
	case RoleAdministrator:
		return ContextAdministrator
	case RoleProfessor:
		return ContextProfessor
	case RoleStudent:
		return ContextStudent
	default:
		return ContextNeutral
	}
}

func (c DashboardContext) String() string {
	switch c {
	case ContextAdministrator:
		return "admin"
	case ContextProfessor:
		return "professor"
	case ContextStudent:
		return "student"
	default:
		return "neutral"
	}
}

// ParseContext accepts the names produced by String, plus "administrator".
func ParseContext(s string) (DashboardContext, bool) {
	switch s {
	case "admin", "administrator":
		return ContextAdministrator, true
	case "professor":
		return ContextProfessor, true
	case "student":
		return ContextStudent, true
	case "neutral":
		return ContextNeutral, true
	default:
		return ContextNeutral, false
	}
}
