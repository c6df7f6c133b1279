package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Форматы времени backend. ISO-8601 без зоны трактуется как UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp — время из JSON backend.
// Принимает RFC 3339 и форму без зоны, сериализуется в RFC 3339.
type Timestamp struct {
	time.Time
}

// NewTimestamp создаёт Timestamp в UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp разбирает строку времени в любом из форматов backend.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("некорректное время: %q", s)
}

// UnmarshalJSON разбирает строку времени; null оставляет нулевое значение.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("время должно быть строкой: %w", err)
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON сериализует время в RFC 3339 (нулевое значение — null).
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

// Wire возвращает время в формате backend без зоны (используется в составных ключах).
func (ts Timestamp) Wire() string {
	return ts.UTC().Format("2006-01-02T15:04:05.999999")
}
