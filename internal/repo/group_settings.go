// Package repo – group settings persistence.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a setting row is not found, FindGroupSetting returns
//     gorm.ErrRecordNotFound (also exported as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/naufalh/wabot/internal/domain"
)

// FindGroupSetting fetches the stored protection setting for chatID.
// If no row exists it returns ErrNotFound; callers fall back to
// domain.DefaultGroupSetting.
func FindGroupSetting(ctx context.Context, db *gorm.DB, chatID string) (*domain.GroupSetting, error) {
	var s domain.GroupSetting
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertGroupSetting writes the full setting record for its chat in a single
// statement, inserting or overwriting as needed. Bulk toggles ("set all")
// go through here too, so one consistent row lands in the store rather than
// five separate writes.
func UpsertGroupSetting(ctx context.Context, db *gorm.DB, s domain.GroupSetting) error {
	s.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"antilink", "antibadword", "antispam",
				"owner_protect", "only_admin_cmd", "updated_at",
			}),
		}).
		Create(&s).Error
}
