package cache

import (
	"slices"

	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// Layout lists the collections a dashboard context loads, in display order.
type Layout []models.Collection

var layouts = map[models.DashboardContext]Layout{
	models.ContextAdministrator: {
		models.Faculties, models.Subjects, models.Professors,
		models.Students, models.Administrators, models.Enrollments,
	},
	models.ContextProfessor: {models.Faculties, models.Subjects, models.Enrollments},
	models.ContextStudent:   {models.Faculties, models.Subjects, models.Students, models.Enrollments},
}

// LayoutFor returns the layout of dash. The neutral context loads nothing.
func LayoutFor(dash models.DashboardContext) Layout {
	return slices.Clone(layouts[dash])
}

func (l Layout) Has(c models.Collection) bool {
	return slices.Contains(l, c)
}
