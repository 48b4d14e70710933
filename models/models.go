package models

import (
	"context"

	"gorm.io/gorm"
)

// All lists every table model in dependency order, for schema creation.
func All() []any {
	return []any{
		&User{},
		&Quiz{},
		&Question{},
		&AnswerOption{},
	}
}

// create inserts record and reloads it so server-side defaults are visible.
func create[T any, P EntityPtr[T]](ctx context.Context, db *gorm.DB, record P) (P, error) {
	db = db.WithContext(ctx)
	if err := db.Create(record).Error; err != nil {
		return nil, err
	}
	return refresh(db, record)
}
