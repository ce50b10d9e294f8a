package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// AnalysisJobMessage tells the worker that a batch is ready for analysis.
// It carries only the batch ID and version; the worker loads the full
// request payload from storage.
type AnalysisJobMessage struct {
	BatchID   string    `json:"batch_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAnalysisJobMessage creates a job message for the given batch
func NewAnalysisJobMessage(batchID string, version int64) *AnalysisJobMessage {
	return &AnalysisJobMessage{
		BatchID:   batchID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AnalysisJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnalysisJobMessageFromJSON creates a message from JSON bytes
func AnalysisJobMessageFromJSON(data []byte) (*AnalysisJobMessage, error) {
	var msg AnalysisJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BatchID == "" {
		return nil, fmt.Errorf("analysis job message missing batch_id")
	}
	return &msg, nil
}
