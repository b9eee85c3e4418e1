package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Profile is the public card of a user as served by the identity directory.
type Profile struct {
	UserID         string     `gorm:"primaryKey;size:190" json:"user_id" yaml:"user_id"`
	UserName       string     `gorm:"size:50;not null" json:"user_name" yaml:"user_name"`
	Avatar         string     `gorm:"size:512" json:"avatar" yaml:"avatar"`
	Bio            string     `gorm:"type:text" json:"bio" yaml:"bio"`
	Domain         string     `gorm:"size:190" json:"domain" yaml:"domain"`
	Stack          StringList `json:"stack" yaml:"stack"`
	Skills         StringList `json:"skills" yaml:"skills"`
	Interests      StringList `json:"interests" yaml:"interests"`
	Location       string     `gorm:"size:190;default:Unknown" json:"location" yaml:"location"`
	MentorshipRole string     `gorm:"size:16;default:learner" json:"mentorship_role" yaml:"mentorship_role"`
	Status         string     `gorm:"size:16;default:active" json:"status" yaml:"status"`
	CreatedAt      time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time  `json:"updated_at" yaml:"-"`
}

// TableName provides the explicit table binding for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// StringList is a list of tags stored as a Postgres text array. Other
// dialects keep the array literal in a text column.
type StringList []string

// Value encodes the list as a Postgres array literal.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

// Scan decodes a Postgres array literal.
func (l *StringList) Scan(src any) error {
	var parsed pq.StringArray
	if err := parsed.Scan(src); err != nil {
		return err
	}
	*l = StringList(parsed)
	return nil
}

// GormDataType reports the generic column type.
func (StringList) GormDataType() string {
	return "text"
}

// GormDBDataType picks the dialect-specific column type.
func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
