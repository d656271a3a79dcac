package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageToJSONStampsTimestamp(t *testing.T) {
	msg := Message{
		Type: MessageTypeHeartbeat,
		Data: map[string]interface{}{"clients": 3},
	}

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.ToJSON(), &decoded))

	assert.Equal(t, MessageTypeHeartbeat, decoded.Type)
	assert.WithinDuration(t, time.Now(), decoded.Timestamp, time.Minute)
}

func TestMessageToJSONKeepsExplicitTimestamp(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	msg := Message{Type: MessageTypePong, Data: map[string]interface{}{}, Timestamp: at}

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.ToJSON(), &decoded))

	assert.True(t, decoded.Timestamp.Equal(at))
}

func TestNewInsightsRefreshedMessage(t *testing.T) {
	generated := time.Date(2025, 5, 1, 6, 0, 0, 0, time.UTC)

	msg := NewInsightsRefreshedMessage("snap-1", 12, 2, generated)

	assert.Equal(t, MessageTypeInsightsRefreshed, msg.Type)
	assert.Equal(t, "snap-1", msg.Data["snapshot_id"])
	assert.Equal(t, 12, msg.Data["insight_count"])
	assert.Equal(t, 2, msg.Data["failure_count"])
	assert.Equal(t, generated, msg.Data["generated_at"])
}

func TestNewSamplesIngestedMessage(t *testing.T) {
	msg := NewSamplesIngestedMessage("revenue", 7)

	assert.Equal(t, MessageTypeSamplesIngested, msg.Type)
	assert.Equal(t, "revenue", msg.Data["metric"])
	assert.Equal(t, 7, msg.Data["count"])
}

func TestClientMetricSubscriptions(t *testing.T) {
	client := &Client{metrics: make(map[string]bool), logger: testLogger()}

	// No subscriptions means receive everything.
	assert.True(t, client.WantsMetric("revenue"))

	client.SubscribeToMetric("revenue")
	assert.True(t, client.WantsMetric("revenue"))
	assert.False(t, client.WantsMetric("signups"))

	client.UnsubscribeFromMetric("revenue")
	assert.True(t, client.WantsMetric("signups"))
}
