package uniserver

import (
	"fmt"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

type facultyInput struct {
	Name *string `json:"name"`
}

type userInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type personInput struct {
	User             *userInput `json:"user"`
	Faculty          *int64     `json:"faculty"`
	Title            *string    `json:"title"`
	EnrollmentNumber *string    `json:"enrollment_number"`
	Office           *string    `json:"office"`
}

type subjectInput struct {
	Name        *string `json:"name"`
	Faculty     *int64  `json:"faculty"`
	ProfessorID *int64  `json:"professor_id"`
	Description *string `json:"description"`
	Credits     *int    `json:"credits"`
	MaxStudents *int    `json:"max_students"`
}

type enrollmentInput struct {
	Student *int64   `json:"student"`
	Subject *int64   `json:"subject"`
	Grade   *string  `json:"grade"`
	Score   *float64 `json:"score"`
}

func invalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func (st *store) saveFaculty(id int64, in facultyInput) (int64, fieldErrors) {
	errs := fieldErrors{}
	if in.Name != nil {
		if *in.Name == "" {
			errs.add("name", "This field may not be blank.")
		}
		for _, f := range st.faculties {
			if f.Name == *in.Name && f.ID != id {
				errs.add("name", "faculty with this name already exists.")
			}
		}
	} else if id == 0 {
		errs.add("name", msgRequired)
	}
	if len(errs) > 0 {
		return 0, errs
	}

	if id == 0 {
		id = st.id("faculties")
		st.faculties[id] = &models.Faculty{ID: id}
	}
	if in.Name != nil {
		st.faculties[id].Name = *in.Name
	}
	return id, nil
}

func (st *store) saveSubject(id int64, in subjectInput) (int64, fieldErrors) {
	errs := fieldErrors{}
	if id == 0 {
		if in.Name == nil {
			errs.add("name", msgRequired)
		}
		if in.Faculty == nil {
			errs.add("faculty", msgRequired)
		}
	}
	if in.Name != nil && *in.Name == "" {
		errs.add("name", "This field may not be blank.")
	}
	if in.Faculty != nil {
		if _, ok := st.faculties[*in.Faculty]; !ok {
			errs.add("faculty", invalidPK(*in.Faculty))
		}
	}
	if in.ProfessorID != nil {
		if _, ok := st.people[models.Professors][*in.ProfessorID]; !ok {
			errs.add("professor_id", invalidPK(*in.ProfessorID))
		}
	}
	if len(errs) > 0 {
		return 0, errs
	}

	if id == 0 {
		id = st.id("subjects")
		st.subjects[id] = &subjectRow{ID: id, Credits: 3, MaxStudents: 30}
	}
	row := st.subjects[id]
	if in.Name != nil {
		row.Name = *in.Name
	}
	if in.Faculty != nil {
		row.Faculty = *in.Faculty
	}
	if in.ProfessorID != nil {
		row.ProfessorID = *in.ProfessorID
	}
	if in.Description != nil {
		row.Description = *in.Description
	}
	if in.Credits != nil {
		row.Credits = *in.Credits
	}
	if in.MaxStudents != nil {
		row.MaxStudents = *in.MaxStudents
	}
	return id, nil
}

func (st *store) savePerson(c models.Collection, id int64, in personInput) (int64, fieldErrors) {
	errs := fieldErrors{}
	var existing *person
	if id != 0 {
		existing = st.people[c][id]
	}

	if id == 0 && (in.User == nil || in.User.Username == nil) {
		errs.add("user.username", msgRequired)
	}
	if in.User != nil && in.User.Username != nil {
		if *in.User.Username == "" {
			errs.add("user.username", "This field may not be blank.")
		} else if a := st.accountByName(*in.User.Username); a != nil && (existing == nil || a.ID != existing.UserID) {
			errs.add("user.username", "A user with that username already exists.")
		}
	}
	if id == 0 && (in.User == nil || in.User.Password == nil) {
		errs.add("user.password", msgRequired)
	}
	if in.Faculty != nil {
		if _, ok := st.faculties[*in.Faculty]; !ok {
			errs.add("faculty", invalidPK(*in.Faculty))
		}
	}
	if len(errs) > 0 {
		return 0, errs
	}

	if existing == nil {
		a := st.addAccount(account{})
		existing = st.addPerson(c, person{UserID: a.ID})
	}
	if in.User != nil {
		a := st.accounts[existing.UserID]
		setIf(&a.Username, in.User.Username)
		setIf(&a.Email, in.User.Email)
		setIf(&a.Password, in.User.Password)
		setIf(&a.FirstName, in.User.FirstName)
		setIf(&a.LastName, in.User.LastName)
	}
	if in.Faculty != nil {
		existing.Faculty = ptr(*in.Faculty)
	}
	switch c {
	case models.Professors:
		setIf(&existing.Extra, in.Title)
	case models.Students:
		setIf(&existing.Extra, in.EnrollmentNumber)
	case models.Administrators:
		setIf(&existing.Extra, in.Office)
	}
	return existing.ID, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (st *store) saveEnrollment(id int64, in enrollmentInput) (int64, fieldErrors) {
	errs := fieldErrors{}
	if id == 0 {
		if in.Student == nil {
			errs.add("student", msgRequired)
		}
		if in.Subject == nil {
			errs.add("subject", msgRequired)
		}
	}
	if in.Student != nil {
		if _, ok := st.people[models.Students][*in.Student]; !ok {
			errs.add("student", invalidPK(*in.Student))
		}
	}
	if in.Subject != nil {
		if _, ok := st.subjects[*in.Subject]; !ok {
			errs.add("subject", invalidPK(*in.Subject))
		}
	}
	if in.Grade != nil {
		switch models.Grade(*in.Grade) {
		case models.GradeA, models.GradeB, models.GradeC, models.GradeD, models.GradeF, models.NotGraded:
		default:
			errs.add("grade", fmt.Sprintf("\"%s\" is not a valid choice.", *in.Grade))
		}
	}
	if in.Score != nil && (*in.Score < 0 || *in.Score > 100) {
		errs.add("score", "Ensure this value is between 0 and 100.")
	}
	if len(errs) > 0 {
		return 0, errs
	}

	row := &enrollmentRow{}
	if id != 0 {
		row = st.enrollments[id]
	}
	student, subject := row.Student, row.Subject
	if in.Student != nil {
		student = *in.Student
	}
	if in.Subject != nil {
		subject = *in.Subject
	}
	for _, e := range st.enrollments {
		if e.ID != id && e.Student == student && e.Subject == subject {
			return 0, fieldErrors{"non_field_errors": {msgUniqueSet}}
		}
	}

	if id == 0 {
		row = st.addEnrollment(enrollmentRow{Student: student, Subject: subject})
	}
	row.Student, row.Subject = student, subject
	if in.Grade != nil {
		row.Grade = *in.Grade
	}
	if in.Score != nil {
		row.Score = ptr(*in.Score)
	}
	return row.ID, nil
}

// remove deletes an entity with the cascades of the real schema: subjects
// and students take their enrollments along, professors are unassigned
// from their subjects, faculties take their subjects along.
func (st *store) remove(c models.Collection, id int64) bool {
	switch c {
	case models.Faculties:
		if _, ok := st.faculties[id]; !ok {
			return false
		}
		delete(st.faculties, id)
		for sid, sub := range st.subjects {
			if sub.Faculty == id {
				st.remove(models.Subjects, sid)
			}
		}
		for _, pc := range personCollections {
			for _, p := range st.people[pc] {
				if p.Faculty != nil && *p.Faculty == id {
					p.Faculty = nil
				}
			}
		}
	case models.Subjects:
		if _, ok := st.subjects[id]; !ok {
			return false
		}
		delete(st.subjects, id)
		for eid, e := range st.enrollments {
			if e.Subject == id {
				delete(st.enrollments, eid)
			}
		}
	case models.Enrollments:
		if _, ok := st.enrollments[id]; !ok {
			return false
		}
		delete(st.enrollments, id)
	default:
		p, ok := st.people[c][id]
		if !ok {
			return false
		}
		delete(st.people[c], id)
		delete(st.accounts, p.UserID)
		switch c {
		case models.Professors:
			for _, sub := range st.subjects {
				if sub.ProfessorID == id {
					sub.ProfessorID = 0
				}
			}
		case models.Students:
			for eid, e := range st.enrollments {
				if e.Student == id {
					delete(st.enrollments, eid)
				}
			}
		}
	}
	return true
}
