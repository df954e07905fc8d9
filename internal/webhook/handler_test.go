package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/message"
)

type published struct {
	topic string
	key   string
	value []byte
}

type fakePublisher struct {
	mu      sync.Mutex
	records []published
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, published{topic: topic, key: key, value: value})
}

func (f *fakePublisher) byTopic(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, r := range f.records {
		if r.topic == topic {
			out = append(out, r)
		}
	}
	return out
}

type delivered struct {
	userID  string
	typ     string
	payload any
}

type fakeDeliverer struct {
	mu    sync.Mutex
	calls []delivered
}

func (f *fakeDeliverer) DeliverTyped(userID, typ string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, delivered{userID: userID, typ: typ, payload: payload})
}

var testTopics = Topics{Raw: "raw", EntryBatch: "batch", Message: "messages"}

func newTestHandler() (*Handler, *fakePublisher, *fakeDeliverer) {
	pub := &fakePublisher{}
	del := &fakeDeliverer{}
	st := &memStore{
		mappings: map[string]string{},
		messages: map[string]*message.Message{},
	}
	n := message.NewNormalizer(st, st)
	h := NewHandler(n, pub, del, testTopics, "my_verify_token", "agent-1", "test")
	return h, pub, del
}

type memStore struct {
	mappings map[string]string
	messages map[string]*message.Message
}

func (s *memStore) PutMapping(_ context.Context, ext, id string) { s.mappings[ext] = id }
func (s *memStore) GetMapping(_ context.Context, ext string) (string, bool) {
	v, ok := s.mappings[ext]
	return v, ok
}
func (s *memStore) PutMessage(_ context.Context, m *message.Message) { s.messages[m.ID] = m }
func (s *memStore) GetMessage(_ context.Context, id string) (*message.Message, bool) {
	m, ok := s.messages[id]
	return m, ok
}

func TestVerify_Handshake(t *testing.T) {
	h, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=my_verify_token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerify_RejectsBadToken(t *testing.T) {
	h, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReceive_AcksImmediately(t *testing.T) {
	h, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EVENT_RECEIVED", rec.Body.String())
}

func eventBody(entryID string, msgs string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": %q,
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [{"wa_id": "100", "profile": {"name": "Alice"}}],
					"messages": %s
				}
			}]
		}]
	}`, entryID, msgs))
}

func TestProcess_TextMessage(t *testing.T) {
	h, pub, del := newTestHandler()

	body := eventBody("entry1", `[{
		"id": "ext1", "from": "+100", "timestamp": "1700000000",
		"type": "text", "text": {"body": "Hi"}
	}]`)

	h.process(context.Background(), body)

	// Raw body forwarded untouched
	raw := pub.byTopic("raw")
	require.Len(t, raw, 1)
	assert.Equal(t, body, raw[0].value)

	// Per-entry batch keyed by entry id
	batch := pub.byTopic("batch")
	require.Len(t, batch, 1)
	assert.Equal(t, "entry1", batch[0].key)

	// Transformed record published
	msgs := pub.byTopic("messages")
	require.Len(t, msgs, 1)
	var record message.Message
	require.NoError(t, json.Unmarshal(msgs[0].value, &record))
	assert.Equal(t, message.OriginCustomer, record.OriginType)
	require.NotNil(t, record.Body.Text)
	assert.Equal(t, "Hi", *record.Body.Text)
	assert.Equal(t, "+100", record.SenderUser.PhoneNumber)
	assert.Equal(t, int64(1700000000000), record.MessageTime)

	// And pushed to the agent's connection
	require.Len(t, del.calls, 1)
	assert.Equal(t, "agent-1", del.calls[0].userID)
	assert.Equal(t, "chatMessage", del.calls[0].typ)
}

func TestProcess_SkipsNonTextMessages(t *testing.T) {
	h, pub, del := newTestHandler()

	body := eventBody("entry1", `[{
		"id": "ext1", "from": "+100", "timestamp": "1700000000", "type": "image"
	}]`)

	h.process(context.Background(), body)

	assert.Len(t, pub.byTopic("raw"), 1, "raw body is always forwarded")
	assert.Empty(t, pub.byTopic("messages"))
	assert.Empty(t, del.calls)
}

func TestProcess_IgnoresOtherObjects(t *testing.T) {
	h, pub, del := newTestHandler()

	body := []byte(`{"object": "page", "entry": []}`)
	h.process(context.Background(), body)

	assert.Len(t, pub.byTopic("raw"), 1)
	assert.Empty(t, pub.byTopic("batch"))
	assert.Empty(t, del.calls)
}

func TestProcess_ReplyThreadAcrossEvents(t *testing.T) {
	h, pub, del := newTestHandler()

	h.process(context.Background(), eventBody("entry1", `[{
		"id": "ext1", "from": "+100", "timestamp": "1700000000",
		"type": "text", "text": {"body": "Hi"}
	}]`))
	h.process(context.Background(), eventBody("entry1", `[{
		"id": "ext2", "from": "+100", "timestamp": "1700000060",
		"type": "text", "text": {"body": "Yo"},
		"context": {"id": "ext1", "from": "+100"}
	}]`))

	msgs := pub.byTopic("messages")
	require.Len(t, msgs, 2)

	var first, second message.Message
	require.NoError(t, json.Unmarshal(msgs[0].value, &first))
	require.NoError(t, json.Unmarshal(msgs[1].value, &second))

	require.NotNil(t, second.ReplyMessageID)
	assert.Equal(t, first.ID, *second.ReplyMessageID)
	require.NotNil(t, second.ReplyMessage)
	require.NotNil(t, second.ReplyMessage.Body.Text)
	assert.Equal(t, "Hi", *second.ReplyMessage.Body.Text)

	assert.Len(t, del.calls, 2)
}

func TestProcess_MalformedBody(t *testing.T) {
	h, pub, del := newTestHandler()

	h.process(context.Background(), []byte("not json"))

	assert.Len(t, pub.byTopic("raw"), 1, "raw forwarding happens before decoding")
	assert.Empty(t, del.calls)
}
