package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		zero  bool
	}{
		{"без зоны", `"2024-05-01T10:00:00.123456"`, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), false},
		{"RFC 3339", `"2024-05-01T13:00:00+03:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"только дата", `"2024-05-01"`, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"null", `null`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.input), &ts); err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if tt.zero {
				if !ts.IsZero() {
					t.Errorf("ожидалось нулевое время, получено %v", ts.Time)
				}
				return
			}
			if !ts.Equal(tt.want) {
				t.Errorf("получено %v, ожидалось %v", ts.Time, tt.want)
			}
		})
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"вчера"`), &ts); err == nil {
		t.Error("ожидалась ошибка для некорректного времени")
	}
}

func TestStatus_JSON(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"did":"d1","status":1}`), &doc); err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	if doc.Status != StatusPublished {
		t.Errorf("ожидался published, получен %s", doc.Status)
	}

	if err := json.Unmarshal([]byte(`{"did":"d1","status":7}`), &doc); err == nil {
		t.Error("неизвестный код статуса должен давать ошибку")
	}

	if _, err := json.Marshal(StatusDraft); err == nil {
		t.Error("draft не должен сериализоваться для backend")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"Published", StatusPublished, false},
		{"approved", StatusPublished, false},
		{"rejected", StatusRejected, false},
		{"draft", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q): ожидалась ошибка", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, %v; ожидалось %v", tt.in, got, err, tt.want)
		}
	}
}

func TestDocument_AuthorUnknown(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"did":"d1","uid":"u1","status":0,"author_name":null}`), &doc); err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	if doc.Author() != UnknownName {
		t.Errorf("ожидался %q, получен %q", UnknownName, doc.Author())
	}
	if doc.Approver() != "" {
		t.Errorf("у непросмотренного документа не должно быть согласующего, получен %q", doc.Approver())
	}
}

func TestComment_CompositeID(t *testing.T) {
	var c Comment
	data := `{"uid":"u1","did":"d1","content":"ok","created_at":"2024-05-01T10:00:00.5","user_name":null}`
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	if got, want := c.ID(), "u1_d1_2024-05-01T10:00:00.5"; got != want {
		t.Errorf("ID() = %q, ожидалось %q", got, want)
	}
	if c.Author() != UnknownName {
		t.Errorf("ожидался %q, получен %q", UnknownName, c.Author())
	}
}

func TestNormalizeRoles(t *testing.T) {
	got := NormalizeRoles([]string{" manager", "READER", "Manager", ""})
	if len(got) != 2 || got[0] != "MANAGER" || got[1] != "READER" {
		t.Errorf("NormalizeRoles() = %v", got)
	}
}
