package whatsapp

// Webhook payload shapes for the WhatsApp Business Cloud API.
// Only the fields this service consumes are declared.

const ObjectBusinessAccount = "whatsapp_business_account"

type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	ID        string   `json:"id"`
	From      string   `json:"from"`
	Timestamp string   `json:"timestamp"` // epoch seconds, textual
	Type      string   `json:"type"`
	Text      *Text    `json:"text,omitempty"`
	Context   *Context `json:"context,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

// Context is present when the message is a reply; ID is the external
// id of the quoted message and From its sender address.
type Context struct {
	ID   string `json:"id"`
	From string `json:"from"`
}
