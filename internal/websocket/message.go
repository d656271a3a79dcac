package websocket

import (
	"encoding/json"
	"time"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeConnection        = "connection"
	MessageTypeHeartbeat         = "heartbeat"
	MessageTypePong              = "pong"
	MessageTypeInsightsRefreshed = "insights_refreshed"
	MessageTypeSamplesIngested   = "samples_ingested"
)

// Message is the wire envelope for every hub push.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToJSON serializes the message, stamping the timestamp if unset.
func (m Message) ToJSON() []byte {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"type":"error","data":{"message":"failed to serialize message"}}`)
	}
	return data
}

// NewInsightsRefreshedMessage announces a completed pipeline run.
func NewInsightsRefreshedMessage(snapshotID string, insightCount, failureCount int, generatedAt time.Time) Message {
	return Message{
		Type: MessageTypeInsightsRefreshed,
		Data: map[string]interface{}{
			"snapshot_id":   snapshotID,
			"insight_count": insightCount,
			"failure_count": failureCount,
			"generated_at":  generatedAt.UTC(),
		},
	}
}

// NewSamplesIngestedMessage announces freshly stored samples for a metric.
func NewSamplesIngestedMessage(metric string, count int) Message {
	return Message{
		Type: MessageTypeSamplesIngested,
		Data: map[string]interface{}{
			"metric": metric,
			"count":  count,
		},
	}
}
