package cache

import (
	"testing"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func joinSnapshot() Snapshot {
	ada := models.Professor{ID: 1, User: models.User{Username: "professor1", FirstName: "Ada", LastName: "Lovelace"}}
	bare := models.Professor{ID: 2, User: models.User{Username: "prof2"}}
	return Snapshot{
		Faculties: Collection[models.Faculty]{Loaded: true, Items: []models.Faculty{{ID: 1, Name: "Computer Science"}}},
		Subjects: Collection[models.Subject]{Loaded: true, Items: []models.Subject{
			{ID: 1, Name: "Algorithms", Faculty: 1, Professor: &ada},
			{ID: 2, Name: "Poetry", Faculty: 9},
			{ID: 3, Name: "Databases", Faculty: 1, Professor: &bare},
		}},
		Students: Collection[models.Student]{Loaded: true, Items: []models.Student{
			{ID: 5, User: models.User{Username: "student1"}},
		}},
		Enrollments: Collection[models.Enrollment]{Loaded: true, Items: []models.Enrollment{
			{ID: 1, Student: 5, Subject: 1},
			{ID: 2, Student: 6, Subject: 1},
		}},
	}
}

func TestJoins(t *testing.T) {
	s := joinSnapshot()

	assert.Equal(t, "Computer Science", s.FacultyName(ptr[int64](1)))
	assert.Equal(t, NotAvailable, s.FacultyName(ptr[int64](9)))
	assert.Equal(t, NotAvailable, s.FacultyName(nil))

	assert.Equal(t, "Ada Lovelace", s.ProfessorName(s.Subjects.Items[0]))
	assert.Equal(t, Unassigned, s.ProfessorName(s.Subjects.Items[1]))
	assert.Equal(t, "prof2", s.ProfessorName(s.Subjects.Items[2]))

	assert.Equal(t, "Algorithms", s.SubjectName(1))
	assert.Equal(t, NotAvailable, s.SubjectName(42))

	assert.Equal(t, 1, s.ProfessorCourseCount(1))
	assert.Equal(t, 0, s.ProfessorCourseCount(7))

	assert.Equal(t, 2, s.SubjectEnrollmentCount(1))
	assert.Equal(t, 0, s.SubjectEnrollmentCount(3))

	st, ok := s.StudentByUsername("student1")
	assert.True(t, ok)
	assert.Equal(t, int64(5), st.ID)
	_, ok = s.StudentByUsername("nobody")
	assert.False(t, ok)

	assert.True(t, s.EnrolledIn(5, 1))
	assert.False(t, s.EnrolledIn(5, 3))
}

func TestStatusOutsideLayout(t *testing.T) {
	var s Snapshot
	loaded, err := s.Status(models.Administrators)
	assert.False(t, loaded)
	assert.NoError(t, err)
	assert.Zero(t, s.Count(models.Collection("courses")))
}
