package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray is a text[] column on Postgres and a text column elsewhere.
// Values use the Postgres array literal encoding on every dialect.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src any) error {
	return (*pq.StringArray)(a).Scan(src)
}

func (StringArray) GormDataType() string {
	return "string"
}

func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
