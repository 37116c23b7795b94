// Package domain defines the persistence model for contacts. The type is
// mapped with GORM and forms the core data layer of the contacts application.
package domain

import "time"

// Contact is a person's name/email/phone record.
//
// Fields:
//   - ID: auto-increment primary key, never reused.
//   - Name: non-empty display name.
//   - Email: unique across all contacts (case-sensitive as stored).
//   - Phone: optional; nil is stored as NULL and rendered as JSON null.
//   - CreatedAt / UpdatedAt: stamped by the store, never client supplied.
type Contact struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"       gorm:"type:text;not null"`
	Email     string    `json:"email"      gorm:"type:text;not null;uniqueIndex:ux_contacts_email"`
	Phone     *string   `json:"phone"      gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;not null;index:idx_contacts_created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;not null"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }

// ContactPatch lists the columns an update may change. Nil fields keep the
// stored value.
type ContactPatch struct {
	Name  *string
	Email *string
	Phone *string
}

// Empty reports whether the patch changes no column.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}
