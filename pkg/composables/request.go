package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mwaxman519/rishi-next-sub005/pkg/constants"
	"github.com/mwaxman519/rishi-next-sub005/pkg/types"
)

var (
	ErrNoLogger   = errors.New("logger not found")
	ErrNoIdentity = errors.New("caller identity not found in context")
	ErrNoTenantID = errors.New("tenant id not found in context")
)

// UseLogger returns the request-scoped logger entry. Panics when the logging
// middleware did not run; that is a wiring bug, not a runtime condition.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic(ErrNoLogger)
	}
	return logger.(*logrus.Entry)
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// WithIdentity attaches the upstream-resolved caller triple.
func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	ctx = context.WithValue(ctx, constants.IdentityKey, identity)
	return context.WithValue(ctx, constants.TenantIDKey, identity.OrganizationID)
}

func UseIdentity(ctx context.Context) (types.Identity, error) {
	identity, ok := ctx.Value(constants.IdentityKey).(types.Identity)
	if !ok {
		return types.Identity{}, ErrNoIdentity
	}
	return identity, nil
}

// UseTenantID returns the caller's organization id. Repositories use it to
// scope every query; a missing tenant is always an error, never a fallback
// to an unscoped query.
func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoTenantID
	}
	return tenantID, nil
}

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}
