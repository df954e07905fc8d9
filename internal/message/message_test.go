package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The JSON field names are a wire contract shared with downstream
// consumers; renaming a Go field must not silently rename a key.
func TestMessage_WireFieldNames(t *testing.T) {
	text := "Hi"
	m := New(NewMessageParams{
		ID:          "abc",
		Text:        &text,
		MessageType: "text",
		OriginType:  OriginCustomer,
		SenderUser:  Sender{PhoneNumber: "+100"},
		MessageTime: 1700000000000,
	})

	b, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))

	for _, key := range []string{
		"id", "message", "messageOriginType",
		"readCount", "deliveryCount", "erroredCount",
		"dateCreated", "dateUpdated",
		"replyMessageId", "replyMessage",
		"senderUser", "messageTime",
		"totalCount", "errorMessage", "adReferralData", "messageMetadata",
	} {
		assert.Contains(t, raw, key)
	}

	body, ok := raw["message"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, body, "text")
	assert.Contains(t, body, "messageType")

	sender, ok := raw["senderUser"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, sender, "phoneNumber")
}

func TestNew_Defaults(t *testing.T) {
	m := New(NewMessageParams{ID: "abc", MessageType: "text", OriginType: OriginUser})

	assert.Equal(t, 0, m.ReadCount)
	assert.Equal(t, 0, m.DeliveryCount)
	assert.Equal(t, 0, m.ErroredCount)
	assert.Equal(t, 1, m.TotalCount)
	assert.Nil(t, m.ErrorMessage)
	assert.Nil(t, m.AdReferralData)
	assert.NotNil(t, m.Metadata)
	assert.Equal(t, m.DateCreated, m.DateUpdated)
	assert.False(t, m.DateCreated.IsZero())
}
