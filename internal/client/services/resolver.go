package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
)

// RoleResolver maps the dashboard summary of a credential to a dashboard
// context. It never looks at local state.
type RoleResolver struct {
	client client.Client
}

func NewRoleResolver(c client.Client) *RoleResolver {
	return &RoleResolver{client: c}
}

func (r *RoleResolver) Resolve(ctx context.Context, cred models.Credential) (models.Profile, models.DashboardContext, error) {
	p, err := r.client.Dashboard(ctx, cred)
	if err != nil {
		return models.Profile{}, models.ContextNeutral, fmt.Errorf("resolve role: %w", err)
	}
	return p, models.ContextFor(models.ParseRole(p.Role)), nil
}
