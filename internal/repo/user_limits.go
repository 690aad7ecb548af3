// Package repo – user limit persistence.
//
// The engine's QuotaStore is the only caller; it owns all metering rules
// (resets, premium expiry, decrements) and uses these functions purely as a
// durable mirror with find/upsert semantics.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/naufalh/wabot/internal/domain"
)

// FindUserLimit fetches the stored metering state for userID (digits-only).
// If no row exists it returns ErrNotFound; the QuotaStore synthesizes a
// default record in that case.
func FindUserLimit(ctx context.Context, db *gorm.DB, userID string) (*domain.UserLimit, error) {
	var u domain.UserLimit
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUserLimit writes the full metering record in a single statement,
// inserting or overwriting as needed. The charge path relies on this being
// all-or-nothing: either the new state lands or the prior row is untouched.
func UpsertUserLimit(ctx context.Context, db *gorm.DB, u domain.UserLimit) error {
	u.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"remaining", "reset_at", "premium", "premium_expire_at", "updated_at",
			}),
		}).
		Create(&u).Error
}
