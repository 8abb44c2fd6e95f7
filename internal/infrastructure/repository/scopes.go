package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

// OwnerIDKey is the context key for the owning user ID
const OwnerIDKey ctxKey = "owner_id"

// OwnerScope returns a GORM scope that filters owner-scoped entities by the
// authenticated user. Applied to all listing/reporting queries so one user
// can never see another user's invoices or clients.
func OwnerScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		ownerID, ok := ctx.Value(OwnerIDKey).(uuid.UUID)
		if !ok {
			// Fail-safe: return no results if owner context missing.
			// This prevents accidental cross-user data access.
			return db.Where("1 = 0")
		}
		return db.Where("user_id = ?", ownerID)
	}
}

// WithOwner adds the owning user ID to context
func WithOwner(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, OwnerIDKey, ownerID)
}

// GetOwnerID extracts the owning user ID from context
func GetOwnerID(ctx context.Context) (uuid.UUID, bool) {
	ownerID, ok := ctx.Value(OwnerIDKey).(uuid.UUID)
	return ownerID, ok
}
