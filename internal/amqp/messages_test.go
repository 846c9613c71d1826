package amqp

import (
	"testing"
	"time"
)

func TestLedgerEventMessage_JSONRoundTrip(t *testing.T) {
	msg := NewLedgerEventMessage(EntityTransaction, "t1", ActionCreated)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Entity != EntityTransaction || got.EntityID != "t1" || got.Action != ActionCreated {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp lost in round trip")
	}
}

func TestLedgerEventMessage_Timestamp(t *testing.T) {
	before := time.Now()
	msg := NewLedgerEventMessage(EntitySnapshot, "", ActionReplaced)
	if msg.Timestamp.Before(before) {
		t.Errorf("timestamp %v predates construction", msg.Timestamp)
	}
}

func TestLedgerEventMessageFromJSON_Invalid(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
