package models

import "fmt"

// Collection names a server-side resource collection.
type Collection string

const (
	Faculties      Collection = "faculties"
	Subjects       Collection = "subjects"
	Professors     Collection = "professors"
	Students       Collection = "students"
	Administrators Collection = "administrators"
	Enrollments    Collection = "enrollments"
)

// Kind is the entity kind held by a collection.
type Kind string

const (
	KindFaculty       Kind = "faculty"
	KindSubject       Kind = "subject"
	KindProfessor     Kind = "professor"
	KindStudent       Kind = "student"
	KindAdministrator Kind = "administrator"
	KindEnrollment    Kind = "enrollment"
)

var kindCollections = map[Kind]Collection{
	KindFaculty:       Faculties,
	KindSubject:       Subjects,
	KindProfessor:     Professors,
	KindStudent:       Students,
	KindAdministrator: Administrators,
	KindEnrollment:    Enrollments,
}

// Collection returns the collection that stores entities of kind k.
func (k Kind) Collection() (Collection, error) {
	c, ok := kindCollections[k]
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", string(k))
	}
	return c, nil
}

// ParseKind accepts a kind or its collection name ("subject", "subjects").
func ParseKind(s string) (Kind, error) {
	if _, ok := kindCollections[Kind(s)]; ok {
		return Kind(s), nil
	}
	for k, c := range kindCollections {
		if string(c) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Payload is the JSON body of a create or update request.
type Payload map[string]any

type Faculty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the account nested in professors, students and administrators.
// Password is write-only.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Password  string `json:"password,omitempty"`
}

type Professor struct {
	ID      int64  `json:"id"`
	User    User   `json:"user"`
	Faculty *int64 `json:"faculty"`
	Title   string `json:"title"`
}

type Student struct {
	ID               int64  `json:"id"`
	User             User   `json:"user"`
	Faculty          *int64 `json:"faculty"`
	EnrollmentNumber string `json:"enrollment_number"`
}

type Administrator struct {
	ID      int64  `json:"id"`
	User    User   `json:"user"`
	Faculty *int64 `json:"faculty"`
	Office  string `json:"office"`
}

// Subject is read with its professor nested; writes reference the professor
// through "professor_id".
type Subject struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Faculty     int64      `json:"faculty"`
	Professor   *Professor `json:"professor"`
	Description string     `json:"description"`
	Credits     int        `json:"credits"`
	MaxStudents int        `json:"max_students"`
}

// ProfessorID returns the id of the assigned professor, or 0.
func (s Subject) ProfessorID() int64 {
	if s.Professor == nil {
		return 0
	}
	return s.Professor.ID
}

type Enrollment struct {
	ID              int64    `json:"id"`
	Student         int64    `json:"student"`
	StudentUsername string   `json:"student_username"`
	Subject         int64    `json:"subject"`
	SubjectName     string   `json:"subject_name"`
	ProfessorName   string   `json:"professor_name"`
	EnrolledDate    string   `json:"enrolled_date"`
	Grade           Grade    `json:"grade"`
	Score           *float64 `json:"score"`
}
