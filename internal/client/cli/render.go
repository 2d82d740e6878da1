package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmitrijs2005/uniportal/internal/client/cache"
	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/dashboard"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/services"
)

var (
	title     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	faint     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	header    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell      = lipgloss.NewStyle().Padding(0, 1)
)

var dashTitles = map[models.DashboardContext]string{
	models.ContextAdministrator: "Administrator dashboard",
	models.ContextProfessor:     "Professor dashboard",
	models.ContextStudent:       "Student dashboard",
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(faint).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func fullName(u models.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func gradeText(g models.Grade) string {
	if g == models.NotGraded {
		return "-"
	}
	return string(g)
}

func scoreText(s *float64) string {
	if s == nil {
		return "-"
	}
	return strconv.FormatFloat(*s, 'f', -1, 64)
}

// renderOpened summarizes what a freshly loaded view holds.
func renderOpened(v *dashboard.View) string {
	snap := v.Snapshot()
	var b strings.Builder
	b.WriteString(title.Render(dashTitles[v.Context()]) + "\n")
	for _, coll := range v.Layout() {
		loaded, err := snap.Status(coll)
		switch {
		case loaded:
			fmt.Fprintf(&b, "  %-15s %d\n", coll, snap.Count(coll))
		case err != nil:
			fmt.Fprintf(&b, "  %-15s %s\n", coll, warnStyle.Render("not loaded: "+err.Error()))
		default:
			fmt.Fprintf(&b, "  %-15s %s\n", coll, warnStyle.Render("not loaded"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCollection(s cache.Snapshot, coll models.Collection) string {
	if loaded, err := s.Status(coll); !loaded {
		msg := string(coll) + " not loaded"
		if err != nil {
			msg += ": " + err.Error()
		}
		return warnStyle.Render(msg)
	}

	var t *table.Table
	switch coll {
	case models.Faculties:
		t = newTable("ID", "Name")
		for _, f := range s.Faculties.Items {
			t.Row(id(f.ID), f.Name)
		}
	case models.Subjects:
		t = newTable("ID", "Name", "Faculty", "Professor", "Credits", "Students")
		for _, sub := range s.Subjects.Items {
			fac := sub.Faculty
			t.Row(id(sub.ID), sub.Name, s.FacultyName(&fac), s.ProfessorName(sub),
				strconv.Itoa(sub.Credits), strconv.Itoa(s.SubjectEnrollmentCount(sub.ID)))
		}
	case models.Professors:
		t = newTable("ID", "Username", "Name", "Faculty", "Title", "Courses")
		for _, p := range s.Professors.Items {
			t.Row(id(p.ID), p.User.Username, fullName(p.User), s.FacultyName(p.Faculty), p.Title,
				strconv.Itoa(s.ProfessorCourseCount(p.ID)))
		}
	case models.Students:
		t = newTable("ID", "Username", "Name", "Faculty", "Number")
		for _, st := range s.Students.Items {
			t.Row(id(st.ID), st.User.Username, fullName(st.User), s.FacultyName(st.Faculty), st.EnrollmentNumber)
		}
	case models.Administrators:
		t = newTable("ID", "Username", "Name", "Office")
		for _, ad := range s.Administrators.Items {
			t.Row(id(ad.ID), ad.User.Username, fullName(ad.User), ad.Office)
		}
	case models.Enrollments:
		t = newTable("ID", "Student", "Subject", "Professor", "Grade", "Score")
		for _, e := range s.Enrollments.Items {
			subject := e.SubjectName
			if subject == "" {
				subject = s.SubjectName(e.Subject)
			}
			t.Row(id(e.ID), e.StudentUsername, subject, e.ProfessorName, gradeText(e.Grade), scoreText(e.Score))
		}
	default:
		return ""
	}
	return t.String()
}

// renderStats prints the dashboard summary of profile for the open view.
func renderStats(p models.Profile, v *dashboard.View) string {
	switch v.Context() {
	case models.ContextAdministrator:
		t := newTable("Total", "Count")
		t.Row("students", strconv.Itoa(p.TotalStudents))
		t.Row("professors", strconv.Itoa(p.TotalProfessors))
		t.Row("subjects", strconv.Itoa(p.TotalSubjects))
		t.Row("enrollments", strconv.Itoa(p.TotalEnrollments))
		return t.String()
	case models.ContextProfessor:
		t := newTable("ID", "Course", "Students", "Credits")
		for _, c := range p.Courses {
			t.Row(id(c.ID), c.Name, strconv.Itoa(c.StudentsCount), strconv.Itoa(c.Credits))
		}
		return t.String()
	case models.ContextStudent:
		t := newTable("ID", "Subject", "Professor", "Grade", "Score")
		for _, e := range p.Enrollments {
			t.Row(id(e.ID), e.Subject, e.Professor, e.Grade, scoreText(e.Score))
		}
		return t.String()
	}
	return ""
}

func renderSessions(list []models.AuthSession) string {
	t := newTable("ID", "IP", "User agent", "Created", "Last activity")
	for _, s := range list {
		t.Row(id(s.ID), s.IPAddress, s.UserAgent, s.CreatedAt, s.LastActivity)
	}
	return t.String()
}

func renderAssign(res services.AssignResult) string {
	var b strings.Builder
	if len(res.Succeeded) > 0 {
		ids := make([]string, 0, len(res.Succeeded))
		for _, n := range res.Succeeded {
			ids = append(ids, id(n))
		}
		b.WriteString(okStyle.Render("Assigned: "+strings.Join(ids, ", ")) + "\n")
	}
	for _, f := range res.Failed {
		fmt.Fprintf(&b, "%s\n", errStyle.Render(fmt.Sprintf("Subject %d: %s", f.SubjectID, apiMessage(f.Err))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func apiMessage(err error) string {
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// renderError shows the server's message, which already lists any field
// errors.
func renderError(err error) string {
	out := errStyle.Render("Error: " + apiMessage(err))
	if errors.Is(err, client.ErrUnavailable) {
		out += "\n" + faint.Render("Is the server running at the configured address?")
	}
	return out
}
