package uniserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/go-chi/chi/v5"
)

const (
	msgForbidden = "You do not have permission to perform this action."
	msgNotFound  = "Not found."
	msgRequired  = "This field is required."
	msgUniqueSet = "The fields student, subject must make a unique set."
)

var collections = map[models.Collection]bool{
	models.Faculties: true, models.Subjects: true, models.Professors: true,
	models.Students: true, models.Administrators: true, models.Enrollments: true,
}

type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

// body nests dotted keys ("user.username") into objects, the way the REST
// framework reports nested serializer errors.
func (f fieldErrors) body() map[string]any {
	out := map[string]any{}
	for k, v := range f {
		parent, child, nested := strings.Cut(k, ".")
		if !nested {
			out[k] = v
			continue
		}
		m, _ := out[parent].(map[string]any)
		if m == nil {
			m = map[string]any{}
			out[parent] = m
		}
		m[child] = v
	}
	return out
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := s.db
	st.mu.Lock()
	defer st.mu.Unlock()

	username := claimsFrom(r.Context()).Subject
	role, me := st.roleOf(username)
	data := map[string]any{"username": username, "role": role}

	switch role {
	case "administrator":
		data["total_students"] = len(st.people[models.Students])
		data["total_professors"] = len(st.people[models.Professors])
		data["total_subjects"] = len(st.subjects)
		data["total_enrollments"] = len(st.enrollments)
	case "professor":
		courses := []models.Course{}
		for _, id := range sortedIDs(st.subjects) {
			sub := st.subjects[id]
			if sub.ProfessorID != me.ID {
				continue
			}
			count := 0
			for _, e := range st.enrollments {
				if e.Subject == sub.ID {
					count++
				}
			}
			courses = append(courses, models.Course{ID: sub.ID, Name: sub.Name, StudentsCount: count, Credits: sub.Credits})
		}
		data["courses"] = courses
	case "student":
		list := []models.EnrollmentSummary{}
		for _, id := range sortedIDs(st.enrollments) {
			e := st.enrollments[id]
			if e.Student != me.ID {
				continue
			}
			full := st.renderEnrollment(e)
			grade := e.Grade
			if grade == "" {
				grade = "Not Graded"
			}
			prof := ""
			if sub, ok := st.subjects[e.Subject]; ok {
				if p, ok := st.people[models.Professors][sub.ProfessorID]; ok {
					u := st.renderUser(p.UserID)
					prof = u.Username
					if u.FirstName != "" {
						prof = u.FirstName + " " + u.LastName
					}
				}
			}
			list = append(list, models.EnrollmentSummary{ID: e.ID, Subject: full.SubjectName, Professor: prof, Grade: grade, Score: e.Score})
		}
		data["enrollments"] = list
	}
	writeJSON(w, http.StatusOK, data)
}

// allowed applies the permission classes of each collection.
func allowed(role, method string, c models.Collection) bool {
	isAdmin := role == "administrator"
	switch method {
	case http.MethodGet:
		return c != models.Administrators || isAdmin
	case http.MethodPost:
		return c == models.Enrollments || isAdmin
	case http.MethodPatch:
		if c == models.Enrollments {
			return isAdmin || role == "professor"
		}
		return isAdmin
	default:
		return isAdmin
	}
}

// route resolves the collection and checks permissions. The store lock must
// be held.
func (s *Server) route(w http.ResponseWriter, r *http.Request) (models.Collection, string, *person, bool) {
	c := models.Collection(chi.URLParam(r, "collection"))
	if !collections[c] {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return "", "", nil, false
	}
	role, me := s.db.roleOf(claimsFrom(r.Context()).Subject)
	if !allowed(role, r.Method, c) {
		writeDetail(w, http.StatusForbidden, msgForbidden)
		return "", "", nil, false
	}
	return c, role, me, true
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// visible lists the rendered items of c the caller may see, in id order.
func (st *store) visible(c models.Collection, role string, me *person) []any {
	out := []any{}
	switch c {
	case models.Faculties:
		for _, id := range sortedIDs(st.faculties) {
			out = append(out, *st.faculties[id])
		}
	case models.Subjects:
		for _, id := range sortedIDs(st.subjects) {
			out = append(out, st.renderSubject(st.subjects[id]))
		}
	case models.Enrollments:
		for _, id := range sortedIDs(st.enrollments) {
			e := st.enrollments[id]
			if st.canSeeEnrollment(e, role, me) {
				out = append(out, st.renderEnrollment(e))
			}
		}
	default:
		rows := st.people[c]
		for _, id := range sortedIDs(rows) {
			out = append(out, st.renderPerson(c, rows[id]))
		}
	}
	return out
}

func (st *store) canSeeEnrollment(e *enrollmentRow, role string, me *person) bool {
	switch role {
	case "administrator":
		return true
	case "professor":
		sub, ok := st.subjects[e.Subject]
		return ok && sub.ProfessorID == me.ID
	case "student":
		return e.Student == me.ID
	default:
		return false
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.db.mu.Lock()
	c, role, me, ok := s.route(w, r)
	if !ok {
		s.db.mu.Unlock()
		return
	}
	items := s.db.visible(c, role, me)
	s.db.mu.Unlock()

	s.mu.Lock()
	enveloped, size := s.enveloped, s.pageSize
	s.mu.Unlock()

	if !enveloped {
		writeJSON(w, http.StatusOK, items)
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if size <= 0 {
		size = len(items) + 1
	}
	start := (page - 1) * size
	if start > len(items) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+size, len(items))

	var next any
	if end < len(items) {
		next = fmt.Sprintf("http://%s%s?page=%d", r.Host, r.URL.Path, page+1)
	}
	var prev any
	if page > 1 {
		prev = fmt.Sprintf("http://%s%s?page=%d", r.Host, r.URL.Path, page-1)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(items),
		"next":     next,
		"previous": prev,
		"results":  items[start:end],
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	st := s.db
	st.mu.Lock()
	defer st.mu.Unlock()

	c, role, me, ok := s.route(w, r)
	if !ok {
		return
	}
	id, ok := itemID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	item, found := st.render(c, id)
	if c == models.Enrollments && found {
		found = st.canSeeEnrollment(st.enrollments[id], role, me)
	}
	if !found {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (st *store) render(c models.Collection, id int64) (any, bool) {
	switch c {
	case models.Faculties:
		f, ok := st.faculties[id]
		if !ok {
			return nil, false
		}
		return *f, true
	case models.Subjects:
		sub, ok := st.subjects[id]
		if !ok {
			return nil, false
		}
		return st.renderSubject(sub), true
	case models.Enrollments:
		e, ok := st.enrollments[id]
		if !ok {
			return nil, false
		}
		return st.renderEnrollment(e), true
	default:
		p, ok := st.people[c][id]
		if !ok {
			return nil, false
		}
		return st.renderPerson(c, p), true
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, 0)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	s.write(w, r, id)
}

// write creates (id == 0) or partially updates an entity.
func (s *Server) write(w http.ResponseWriter, r *http.Request, id int64) {
	st := s.db
	st.mu.Lock()
	defer st.mu.Unlock()

	c, role, me, ok := s.route(w, r)
	if !ok {
		return
	}
	if id != 0 {
		if _, found := st.render(c, id); !found {
			writeDetail(w, http.StatusNotFound, msgNotFound)
			return
		}
		if c == models.Enrollments && !st.canSeeEnrollment(st.enrollments[id], role, me) {
			writeDetail(w, http.StatusNotFound, msgNotFound)
			return
		}
	}

	var (
		saved int64
		errs  fieldErrors
		err   error
	)
	switch c {
	case models.Faculties:
		var in facultyInput
		if err = decodeJSON(r, &in); err == nil {
			saved, errs = st.saveFaculty(id, in)
		}
	case models.Subjects:
		var in subjectInput
		if err = decodeJSON(r, &in); err == nil {
			saved, errs = st.saveSubject(id, in)
		}
	case models.Enrollments:
		var in enrollmentInput
		if err = decodeJSON(r, &in); err == nil {
			saved, errs = st.saveEnrollment(id, in)
		}
	default:
		var in personInput
		if err = decodeJSON(r, &in); err == nil {
			saved, errs = st.savePerson(c, id, in)
		}
	}
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs.body())
		return
	}

	item, _ := st.render(c, saved)
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	st := s.db
	st.mu.Lock()
	defer st.mu.Unlock()

	c, _, _, ok := s.route(w, r)
	if !ok {
		return
	}
	id, ok := itemID(r)
	if !ok || !st.remove(c, id) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
