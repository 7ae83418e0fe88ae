package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 结构化快照列，序列化为 JSON 文本存储
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口。SQLite 的 TEXT 列可能以 string 形式返回。
func (j *JSON) Scan(value interface{}) error {
	raw, err := rawJSONColumn(value)
	if err != nil || raw == nil {
		*j = make(JSON)
		return err
	}
	return json.Unmarshal(raw, j)
}

// StringArray 字符串数组列（tags、images），序列化为 JSON 文本存储
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	raw, err := rawJSONColumn(value)
	if err != nil || raw == nil {
		*s = StringArray{}
		return err
	}
	return json.Unmarshal(raw, s)
}

func rawJSONColumn(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}
