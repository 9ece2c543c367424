package datatypes

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/carbonex/carbonex/matching"
)

func scanBytes(val interface{}) ([]byte, error) {
	if val == nil {
		return nil, nil
	}
	switch v := val.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", val))
	}
}

func jsonDBDataType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "JSON"
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	}
	return ""
}

// Fills stores an order's fill list as a JSON column.
type Fills []*matching.Fill

func (m Fills) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *Fills) Scan(val interface{}) error {
	ba, err := scanBytes(val)
	if err != nil {
		return err
	}
	if ba == nil {
		*m = Fills{}
		return nil
	}
	t := Fills{}
	err = json.Unmarshal(ba, &t)
	*m = t
	return err
}

func (m Fills) GormDataType() string {
	return "jsonmap"
}

func (Fills) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonDBDataType(db)
}

// UUIDArray stores a batch's transaction membership as a JSON column.
type UUIDArray []uuid.UUID

func (m UUIDArray) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *UUIDArray) Scan(val interface{}) error {
	ba, err := scanBytes(val)
	if err != nil {
		return err
	}
	if ba == nil {
		*m = UUIDArray{}
		return nil
	}
	t := UUIDArray{}
	err = json.Unmarshal(ba, &t)
	*m = t
	return err
}

func (m UUIDArray) GormDataType() string {
	return "jsonmap"
}

func (UUIDArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonDBDataType(db)
}

// StringMap stores per-seller payout references as a JSON column.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *StringMap) Scan(val interface{}) error {
	ba, err := scanBytes(val)
	if err != nil {
		return err
	}
	if ba == nil {
		*m = StringMap{}
		return nil
	}
	t := StringMap{}
	err = json.Unmarshal(ba, &t)
	*m = t
	return err
}

func (m StringMap) GormDataType() string {
	return "jsonmap"
}

func (StringMap) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonDBDataType(db)
}
