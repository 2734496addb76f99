package service

import (
	"context"
	"errors"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/cache"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"go.uber.org/zap"
)

// RoleResolver decides which role routing should trust for a session. The
// token's role can be stale after a role change, so the profile wins.
type RoleResolver struct {
	roles    cache.RoleCache
	profiles profile.Repository
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewRoleResolver(roles cache.RoleCache, profiles profile.Repository, m *metrics.Collector, log *zap.Logger) *RoleResolver {
	return &RoleResolver{roles: roles, profiles: profiles, metrics: m, log: log}
}

// Resolve returns the identity's current role: cached, else from the
// profile, else from the token. The empty role means none assigned yet.
func (r *RoleResolver) Resolve(ctx context.Context, claims *domain.Claims) domain.Role {
	if claims == nil {
		return ""
	}

	role, ok, err := r.roles.Get(ctx, claims.IdentityID)
	switch {
	case err != nil:
		r.lookup("error")
		r.log.Warn("role cache lookup failed", zap.Error(err))
	case ok:
		r.lookup("hit")
		return role
	default:
		r.lookup("miss")
	}

	p, err := r.profiles.GetProfile(ctx, claims.IdentityID)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			r.log.Error("loading profile for role resolution",
				zap.String("identity_id", claims.IdentityID.String()),
				zap.Error(err),
			)
		}
		return claims.Role
	}
	if !p.Role.IsValid() {
		return claims.Role
	}

	if err := r.roles.Fill(ctx, claims.IdentityID, p.Role); err != nil {
		r.log.Warn("caching role", zap.Error(err))
	}
	return p.Role
}

func (r *RoleResolver) lookup(result string) {
	if r.metrics != nil {
		r.metrics.RoleCacheLookups.WithLabelValues(result).Inc()
	}
}
