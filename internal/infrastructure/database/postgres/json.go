package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue wraps a nested value for map-based Updates, which bypass the
// model's json serializer.
func jsonValue(v interface{}) driver.Valuer {
	return jsonColumn{v: v}
}

type jsonColumn struct {
	v interface{}
}

func (j jsonColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(j.v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(b), nil
}
