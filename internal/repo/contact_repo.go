// Package repo implements the data persistence layer for contacts, backed by
// GORM. This file provides repository functions for the Contact model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a contact is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - Unique-email violations are returned as ErrDuplicateEmail, whichever
//     driver produced them.
//   - On other DB errors the raw gorm error is propagated.
//
// Usage:
//
//	c, err := repo.GetContact(ctx, db, id)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // handle missing
//	} else if err != nil {
//	    // handle DB failure
//	}
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-contacts-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicateEmail indicates that the unique index on contacts.email
// rejected a write.
var ErrDuplicateEmail = errors.New("duplicate email")

// ListContacts returns every contact ordered by creation time descending
// (most recent first). Rows created in the same instant fall back to id
// descending so the order is deterministic.
func ListContacts(ctx context.Context, db *gorm.DB) ([]domain.Contact, error) {
	out := []domain.Contact{}
	err := db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&out).Error
	return out, err
}

// GetContact fetches a single contact by id, or ErrNotFound.
func GetContact(ctx context.Context, db *gorm.DB, id int64) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetContactByEmail fetches the contact holding email (exact, case-sensitive
// match), or ErrNotFound.
func GetContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContact inserts a new contact and returns the stored row. Both
// timestamps are set to the current UTC time. A nil or empty phone is stored
// as NULL.
func CreateContact(ctx context.Context, db *gorm.DB, name, email string, phone *string) (*domain.Contact, error) {
	if phone != nil && *phone == "" {
		phone = nil
	}
	now := time.Now().UTC()
	c := &domain.Contact{
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return GetContact(ctx, db, c.ID)
}

// UpdateContact applies the non-nil fields of patch to contact id, refreshes
// updated_at and returns the stored row. It returns ErrNotFound when the
// contact does not exist. The new updated_at never precedes the previous one.
func UpdateContact(ctx context.Context, db *gorm.DB, id int64, patch domain.ContactPatch) (*domain.Contact, error) {
	var out *domain.Contact
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := GetContact(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if now.Before(existing.UpdatedAt) {
			now = existing.UpdatedAt
		}
		cols := map[string]any{"updated_at": now}
		if patch.Name != nil {
			cols["name"] = *patch.Name
		}
		if patch.Email != nil {
			cols["email"] = *patch.Email
		}
		if patch.Phone != nil {
			cols["phone"] = *patch.Phone
		}

		res := tx.Model(&domain.Contact{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		out, err = GetContact(ctx, tx, id)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return out, nil
}

// DeleteContact hard-deletes contact id and reports whether a row was
// actually removed.
func DeleteContact(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Contact{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsUniqueViolation detects unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateEmail) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed: contacts.email"
	// Postgres typically: "duplicate key value violates unique constraint"
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
