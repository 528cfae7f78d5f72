package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/orbas1/fixnado-backend/api/middleware"
	"github.com/orbas1/fixnado-backend/internal/rentals"
	"github.com/orbas1/fixnado-backend/pkg/enums"
)

// actorFromContext rebuilds the acting user from the auth middleware claims.
func actorFromContext(ctx context.Context) rentals.Actor {
	actor := rentals.Actor{Role: enums.ActorRoleSystem}
	if raw := middleware.UserIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			actor.ID = &id
		}
	}
	if raw := middleware.CompanyIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			actor.CompanyID = &id
		}
	}
	if raw := middleware.RoleFromContext(ctx); raw != "" {
		if role, err := enums.ParseActorRole(raw); err == nil {
			actor.Role = role
		}
	}
	return actor
}

func companyIDFromContext(ctx context.Context) uuid.UUID {
	raw := middleware.CompanyIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
