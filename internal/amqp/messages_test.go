package amqp

import (
	"testing"
)

func TestRecordCreatedMessageRoundTrip(t *testing.T) {
	row := []string{"7", "2024-01-15", "Comida", "12.5", "nota", "food", "JP", "2024-01-15T10:00:00Z"}
	msg := NewRecordCreatedMessage("expenses", 7, row)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := RecordCreatedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Table != "expenses" || back.ID != 7 {
		t.Fatalf("got table=%s id=%d", back.Table, back.ID)
	}
	if len(back.Row) != len(row) {
		t.Fatalf("got %d cells", len(back.Row))
	}
	for i := range row {
		if back.Row[i] != row[i] {
			t.Fatalf("cell %d = %q, want %q", i, back.Row[i], row[i])
		}
	}
	if back.Timestamp.IsZero() {
		t.Fatalf("timestamp lost")
	}
}

func TestRecordCreatedMessageFromInvalidJSON(t *testing.T) {
	if _, err := RecordCreatedMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}
