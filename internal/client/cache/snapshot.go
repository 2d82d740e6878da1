package cache

import (
	"strings"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// Placeholders shown when a join finds nothing.
const (
	NotAvailable = "N/A"
	Unassigned   = "Unassigned"
)

// Collection is one cached collection. Loaded is false until a fetch
// succeeds; Err holds the last fetch error.
type Collection[T any] struct {
	Items  []T
	Loaded bool
	Err    error
}

func (c Collection[T]) Len() int { return len(c.Items) }

// Snapshot is an immutable view of every collection of a layout.
// Collections outside the layout stay zero.
type Snapshot struct {
	Faculties      Collection[models.Faculty]
	Subjects       Collection[models.Subject]
	Professors     Collection[models.Professor]
	Students       Collection[models.Student]
	Administrators Collection[models.Administrator]
	Enrollments    Collection[models.Enrollment]
}

// Status reports the loaded flag and the last error of c.
func (s Snapshot) Status(c models.Collection) (loaded bool, err error) {
	switch c {
	case models.Faculties:
		return s.Faculties.Loaded, s.Faculties.Err
	case models.Subjects:
		return s.Subjects.Loaded, s.Subjects.Err
	case models.Professors:
		return s.Professors.Loaded, s.Professors.Err
	case models.Students:
		return s.Students.Loaded, s.Students.Err
	case models.Administrators:
		return s.Administrators.Loaded, s.Administrators.Err
	case models.Enrollments:
		return s.Enrollments.Loaded, s.Enrollments.Err
	}
	return false, nil
}

// Count returns the number of cached items of c.
func (s Snapshot) Count(c models.Collection) int {
	switch c {
	case models.Faculties:
		return s.Faculties.Len()
	case models.Subjects:
		return s.Subjects.Len()
	case models.Professors:
		return s.Professors.Len()
	case models.Students:
		return s.Students.Len()
	case models.Administrators:
		return s.Administrators.Len()
	case models.Enrollments:
		return s.Enrollments.Len()
	}
	return 0
}

func (s Snapshot) FacultyName(id *int64) string {
	if id == nil {
		return NotAvailable
	}
	for _, f := range s.Faculties.Items {
		if f.ID == *id {
			return f.Name
		}
	}
	return NotAvailable
}

// ProfessorName is the full name of the subject's professor, falling back
// to the username.
func (s Snapshot) ProfessorName(sub models.Subject) string {
	if sub.Professor == nil {
		return Unassigned
	}
	return displayName(sub.Professor.User)
}

func (s Snapshot) SubjectName(id int64) string {
	for _, sub := range s.Subjects.Items {
		if sub.ID == id {
			return sub.Name
		}
	}
	return NotAvailable
}

// ProfessorCourseCount counts the cached subjects assigned to professorID.
func (s Snapshot) ProfessorCourseCount(professorID int64) int {
	n := 0
	for _, sub := range s.Subjects.Items {
		if sub.ProfessorID() == professorID {
			n++
		}
	}
	return n
}

func (s Snapshot) SubjectEnrollmentCount(subjectID int64) int {
	n := 0
	for _, e := range s.Enrollments.Items {
		if e.Subject == subjectID {
			n++
		}
	}
	return n
}

func (s Snapshot) StudentByUsername(username string) (models.Student, bool) {
	for _, st := range s.Students.Items {
		if st.User.Username == username {
			return st, true
		}
	}
	return models.Student{}, false
}

// EnrolledIn reports whether the cached enrollments pair studentID with
// subjectID.
func (s Snapshot) EnrolledIn(studentID, subjectID int64) bool {
	for _, e := range s.Enrollments.Items {
		if e.Student == studentID && e.Subject == subjectID {
			return true
		}
	}
	return false
}

func displayName(u models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
