package uniserver

import (
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

type account struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// person is a professor, student or administrator row; Extra holds the
// title, enrollment number or office.
type person struct {
	ID      int64
	UserID  int64
	Faculty *int64
	Extra   string
}

type subjectRow struct {
	ID          int64
	Name        string
	Faculty     int64
	ProfessorID int64
	Description string
	Credits     int
	MaxStudents int
}

type enrollmentRow struct {
	ID       int64
	Student  int64
	Subject  int64
	Enrolled time.Time
	Grade    string
	Score    *float64
}

type loginSession struct {
	ID           int64
	Username     string
	AccessJTI    string
	RefreshJTI   string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActivity time.Time
}

var personCollections = []models.Collection{models.Administrators, models.Professors, models.Students}

type store struct {
	mu  sync.Mutex
	now func() time.Time

	nextID map[string]int64

	accounts    map[int64]*account
	faculties   map[int64]*models.Faculty
	people      map[models.Collection]map[int64]*person
	subjects    map[int64]*subjectRow
	enrollments map[int64]*enrollmentRow

	sessions map[int64]*loginSession
	revoked  map[string]bool
}

func newStore(now func() time.Time) *store {
	st := &store{
		now:         now,
		nextID:      make(map[string]int64),
		accounts:    make(map[int64]*account),
		faculties:   make(map[int64]*models.Faculty),
		people:      make(map[models.Collection]map[int64]*person),
		subjects:    make(map[int64]*subjectRow),
		enrollments: make(map[int64]*enrollmentRow),
		sessions:    make(map[int64]*loginSession),
		revoked:     make(map[string]bool),
	}
	for _, c := range personCollections {
		st.people[c] = make(map[int64]*person)
	}
	st.seed()
	return st
}

func (st *store) id(table string) int64 {
	st.nextID[table]++
	return st.nextID[table]
}

func ptr[T any](v T) *T { return &v }

func (st *store) seed() {
	cs := st.id("faculties")
	st.faculties[cs] = &models.Faculty{ID: cs, Name: "CS"}
	en := st.id("faculties")
	st.faculties[en] = &models.Faculty{ID: en, Name: "EN"}

	admin := st.addAccount(account{Username: AdminUsername, Email: "admin@uni.test", FirstName: "Grace", LastName: "Hopper", Password: AdminPassword})
	st.addPerson(models.Administrators, person{UserID: admin.ID, Faculty: ptr(cs), Extra: "A-101"})

	prof := st.addAccount(account{Username: ProfessorUsername, Email: "prof1@uni.test", FirstName: "Ada", LastName: "Lovelace", Password: ProfessorPassword})
	p := st.addPerson(models.Professors, person{UserID: prof.ID, Faculty: ptr(cs), Extra: "Dr."})

	stud := st.addAccount(account{Username: StudentUsername, Email: "student1@uni.test", FirstName: "Alan", LastName: "Turing", Password: StudentPassword})
	s := st.addPerson(models.Students, person{UserID: stud.ID, Faculty: ptr(cs), Extra: "S-0001"})

	algo := st.addSubject(subjectRow{Name: "Algorithms", Faculty: cs, ProfessorID: p.ID, Description: "Design and analysis", Credits: 6, MaxStudents: 30})
	st.addSubject(subjectRow{Name: "English Literature", Faculty: en, Credits: 3, MaxStudents: 40})
	st.addSubject(subjectRow{Name: "Databases", Faculty: cs, ProfessorID: p.ID, Credits: 4, MaxStudents: 25})

	st.addEnrollment(enrollmentRow{Student: s.ID, Subject: algo.ID})
}

func (st *store) addAccount(a account) *account {
	a.ID = st.id("accounts")
	st.accounts[a.ID] = &a
	return &a
}

func (st *store) addPerson(c models.Collection, p person) *person {
	p.ID = st.id(string(c))
	st.people[c][p.ID] = &p
	return &p
}

func (st *store) addSubject(s subjectRow) *subjectRow {
	s.ID = st.id("subjects")
	st.subjects[s.ID] = &s
	return &s
}

func (st *store) addEnrollment(e enrollmentRow) *enrollmentRow {
	e.ID = st.id("enrollments")
	e.Enrolled = st.now().UTC()
	st.enrollments[e.ID] = &e
	return &e
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (st *store) accountByName(username string) *account {
	for _, a := range st.accounts {
		if a.Username == username {
			return a
		}
	}
	return nil
}

func (st *store) accountExists(username string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.accountByName(username) != nil
}

func (st *store) checkPassword(username, password string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	a := st.accountByName(username)
	return a != nil && a.Password == password
}

// roleOf returns the role string and the profile row of a user.
func (st *store) roleOf(username string) (string, *person) {
	a := st.accountByName(username)
	if a == nil {
		return "user", nil
	}
	for _, c := range personCollections {
		for _, p := range st.people[c] {
			if p.UserID == a.ID {
				switch c {
				case models.Administrators:
					return "administrator", p
				case models.Professors:
					return "professor", p
				default:
					return "student", p
				}
			}
		}
	}
	return "user", nil
}

func (st *store) addSession(username, accessJTI, refreshJTI, ip, ua string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now().UTC()
	id := st.id("sessions")
	st.sessions[id] = &loginSession{
		ID: id, Username: username, AccessJTI: accessJTI, RefreshJTI: refreshJTI,
		IPAddress: ip, UserAgent: ua, CreatedAt: now, LastActivity: now,
	}
}

func (st *store) isRevoked(jti string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.revoked[jti]
}

func (st *store) dropSession(ls *loginSession) {
	st.revoked[ls.AccessJTI] = true
	st.revoked[ls.RefreshJTI] = true
	delete(st.sessions, ls.ID)
}

// revokeSessionByRefresh retires the session a refresh token belongs to.
func (st *store) revokeSessionByRefresh(refreshJTI string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.revoked[refreshJTI] = true
	for _, ls := range st.sessions {
		if ls.RefreshJTI == refreshJTI {
			st.dropSession(ls)
		}
	}
}

func (st *store) logout(username string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, ls := range st.sessions {
		if ls.Username == username {
			st.dropSession(ls)
		}
	}
}

func (st *store) revokeSession(username string, id int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	ls, ok := st.sessions[id]
	if !ok || ls.Username != username {
		return false
	}
	st.dropSession(ls)
	return true
}

func (st *store) sessionsOf(username string) []models.AuthSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := []models.AuthSession{}
	for _, id := range sortedIDs(st.sessions) {
		ls := st.sessions[id]
		if ls.Username != username {
			continue
		}
		out = append(out, models.AuthSession{
			ID:           ls.ID,
			IPAddress:    ls.IPAddress,
			UserAgent:    ls.UserAgent,
			CreatedAt:    ls.CreatedAt.Format(time.RFC3339),
			LastActivity: ls.LastActivity.Format(time.RFC3339),
		})
	}
	return out
}

func (st *store) renderUser(id int64) models.User {
	a, ok := st.accounts[id]
	if !ok {
		return models.User{ID: id}
	}
	return models.User{ID: a.ID, Username: a.Username, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
}

func (st *store) renderPerson(c models.Collection, p *person) any {
	u := st.renderUser(p.UserID)
	switch c {
	case models.Administrators:
		return models.Administrator{ID: p.ID, User: u, Faculty: p.Faculty, Office: p.Extra}
	case models.Professors:
		return st.renderProfessor(p)
	default:
		return models.Student{ID: p.ID, User: u, Faculty: p.Faculty, EnrollmentNumber: p.Extra}
	}
}

func (st *store) renderProfessor(p *person) models.Professor {
	return models.Professor{ID: p.ID, User: st.renderUser(p.UserID), Faculty: p.Faculty, Title: p.Extra}
}

func (st *store) renderSubject(s *subjectRow) models.Subject {
	out := models.Subject{
		ID: s.ID, Name: s.Name, Faculty: s.Faculty, Description: s.Description,
		Credits: s.Credits, MaxStudents: s.MaxStudents,
	}
	if p, ok := st.people[models.Professors][s.ProfessorID]; ok {
		prof := st.renderProfessor(p)
		out.Professor = &prof
	}
	return out
}

func (st *store) renderEnrollment(e *enrollmentRow) models.Enrollment {
	out := models.Enrollment{
		ID: e.ID, Student: e.Student, Subject: e.Subject,
		EnrolledDate: e.Enrolled.Format(time.RFC3339),
		Grade:        models.Grade(e.Grade), Score: e.Score,
	}
	if p, ok := st.people[models.Students][e.Student]; ok {
		out.StudentUsername = st.renderUser(p.UserID).Username
	}
	if s, ok := st.subjects[e.Subject]; ok {
		out.SubjectName = s.Name
		if p, ok := st.people[models.Professors][s.ProfessorID]; ok {
			out.ProfessorName = st.renderUser(p.UserID).FirstName
		}
	}
	return out
}
