package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/common"
)

type fieldType int

const (
	text fieldType = iota
	number
	decimal
	secret
)

// field is one form input. Keys with a dot ("user.email") go into a nested
// object.
type field struct {
	key        string
	label      string
	typ        fieldType
	createOnly bool
}

var userFields = []field{
	{key: "user.username", label: "Username"},
	{key: "user.email", label: "Email"},
	{key: "user.first_name", label: "First name"},
	{key: "user.last_name", label: "Last name"},
	{key: "user.password", label: "Password", typ: secret, createOnly: true},
	{key: "faculty", label: "Faculty ID", typ: number},
}

var forms = map[models.Kind][]field{
	models.KindFaculty: {
		{key: "name", label: "Name"},
	},
	models.KindSubject: {
		{key: "name", label: "Name"},
		{key: "faculty", label: "Faculty ID", typ: number},
		{key: "professor_id", label: "Professor ID", typ: number},
		{key: "description", label: "Description"},
		{key: "credits", label: "Credits", typ: number},
		{key: "max_students", label: "Max students", typ: number},
	},
	models.KindProfessor:     withUser(field{key: "title", label: "Title"}),
	models.KindStudent:       withUser(field{key: "enrollment_number", label: "Enrollment number"}),
	models.KindAdministrator: withUser(field{key: "office", label: "Office"}),
	models.KindEnrollment: {
		{key: "student", label: "Student ID", typ: number, createOnly: true},
		{key: "subject", label: "Subject ID", typ: number, createOnly: true},
		{key: "grade", label: "Grade (A-F, - for none)"},
		{key: "score", label: "Score (0-100)", typ: decimal},
	},
}

func withUser(extra field) []field {
	return append(slices.Clone(userFields), extra)
}

// promptPayload asks for every field of kind and returns the non-empty
// answers. Edits skip create-only fields.
func (a *App) promptPayload(kind models.Kind, creating bool) (models.Payload, error) {
	payload := models.Payload{}
	for _, f := range forms[kind] {
		if f.createOnly && !creating {
			continue
		}
		v, ok, err := a.ask(f)
		if err != nil {
			return nil, err
		}
		if ok {
			setField(payload, f.key, v)
		}
	}
	return payload, nil
}

func (a *App) ask(f field) (any, bool, error) {
	if f.typ == secret {
		pw, err := getPassword(f.label, a.out)
		if err != nil {
			return nil, false, err
		}
		defer common.WipeByteArray(pw)
		return string(pw), len(pw) > 0, nil
	}

	for {
		s, err := GetSimpleText(a.reader, f.label, a.out)
		if err != nil {
			return nil, false, err
		}
		if s == "" {
			return nil, false, nil
		}
		v, err := parseField(f, s)
		if err == nil {
			return v, true, nil
		}
		a.println(errStyle.Render(err.Error()))
	}
}

func parseField(f field, s string) (any, error) {
	switch f.typ {
	case number:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", f.label)
		}
		return n, nil
	case decimal:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", f.label)
		}
		return x, nil
	}
	if f.key == "grade" {
		g, err := models.ParseGrade(s)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return s, nil
}

func setField(p models.Payload, key string, v any) {
	parent, child, nested := strings.Cut(key, ".")
	if !nested {
		p[key] = v
		return
	}
	m, _ := p[parent].(map[string]any)
	if m == nil {
		m = map[string]any{}
		p[parent] = m
	}
	m[child] = v
}
