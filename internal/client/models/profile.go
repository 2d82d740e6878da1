package models

// Profile is the payload of the dashboard endpoint. Which optional parts are
// filled depends on the role.
type Profile struct {
	Username string `json:"username"`
	Role     string `json:"role"`

	// Administrator totals.
	TotalStudents    int `json:"total_students,omitempty"`
	TotalProfessors  int `json:"total_professors,omitempty"`
	TotalSubjects    int `json:"total_subjects,omitempty"`
	TotalEnrollments int `json:"total_enrollments,omitempty"`

	// Professor courses.
	Courses []Course `json:"courses,omitempty"`

	// Student enrollments.
	Enrollments []EnrollmentSummary `json:"enrollments,omitempty"`
}

type Course struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	StudentsCount int    `json:"students_count"`
	Credits       int    `json:"credits"`
}

type EnrollmentSummary struct {
	ID        int64    `json:"id"`
	Subject   string   `json:"subject"`
	Professor string   `json:"professor"`
	Grade     string   `json:"grade"`
	Score     *float64 `json:"score"`
}

// AuthSession is one server-side login session of the current user.
type AuthSession struct {
	ID           int64  `json:"id"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
}
