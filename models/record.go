package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entity is implemented by every persisted record: it maps to one table and
// has an integer primary key.
type Entity interface {
	TableName() string
	Identity() uint
}

// EntityPtr lets the generic functions below take *T while T itself is the
// struct type gorm maps.
type EntityPtr[T any] interface {
	*T
	Entity
}

// Patcher yields the column values a partial update should write. Fields the
// caller did not set must be absent from the map.
type Patcher interface {
	Changes() map[string]any
}

// Patch is a raw column -> value patch.
type Patch map[string]any

func (p Patch) Changes() map[string]any { return p }

// Get looks a record up by primary key. A missing row is not an error: the
// result is nil.
func Get[T any, P EntityPtr[T]](ctx context.Context, db *gorm.DB, id uint) (P, error) {
	var record T
	err := db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return P(&record), nil
}

// Update merges patch into current and persists it. Keys that do not name a
// column of the record, and the primary key, are ignored. Records with an
// updated_at column get it refreshed even when the patch is empty. current
// is reloaded from the database afterwards and returned.
func Update[T any, P EntityPtr[T]](ctx context.Context, db *gorm.DB, current P, patch Patcher) (P, error) {
	db = db.WithContext(ctx)

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(current); err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	for key, value := range patch.Changes() {
		field := stmt.Schema.LookUpField(key)
		if field == nil || field.DBName == "" || field.PrimaryKey || !field.Updatable {
			continue
		}
		changes[field.DBName] = value
	}
	if field := stmt.Schema.LookUpField("updated_at"); field != nil {
		changes[field.DBName] = time.Now()
	}

	if len(changes) > 0 {
		if err := db.Model(current).Omit(clause.Associations).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return refresh(db, current)
}

// Delete removes current. Child rows go with it through the ON DELETE CASCADE
// foreign keys. The returned value is detached from the database.
func Delete[T any, P EntityPtr[T]](ctx context.Context, db *gorm.DB, current P) (P, error) {
	if err := db.WithContext(ctx).Delete(current).Error; err != nil {
		return nil, err
	}
	return current, nil
}

// DeleteByID deletes the record with the given id, returning nil when there
// is no such record.
func DeleteByID[T any, P EntityPtr[T]](ctx context.Context, db *gorm.DB, id uint) (P, error) {
	current, err := Get[T, P](ctx, db, id)
	if err != nil || current == nil {
		return nil, err
	}
	return Delete[T, P](ctx, db, current)
}

// IsIntegrityConflict reports whether err is a unique or foreign key
// violation. The gateway opens gorm with TranslateError so every dialect
// reports them as gorm sentinels.
func IsIntegrityConflict(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)
}

func refresh[T any, P EntityPtr[T]](db *gorm.DB, current P) (P, error) {
	id := current.Identity()
	var fresh T
	if err := db.First(&fresh, id).Error; err != nil {
		return nil, err
	}
	*current = fresh
	return current, nil
}
