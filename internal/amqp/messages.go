package amqp

import (
	"encoding/json"
	"time"
)

const (
	EntityTransaction = "transaction"
	EntityAccount     = "account"
	EntityBudget      = "budget"
	EntityCategory    = "category"
	EntitySnapshot    = "snapshot"
)

const (
	ActionCreated  = "created"
	ActionDeleted  = "deleted"
	ActionUpdated  = "updated"
	ActionReplaced = "replaced"
)

// LedgerEventMessage signals that the stored bundle changed. It carries no
// payload: consumers reload the snapshot and rederive whatever they need,
// matching the recompute-on-read model of the engine.
type LedgerEventMessage struct {
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(entity, entityID, action string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
