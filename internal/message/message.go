package message

import (
	"time"
)

// OriginType identifies who authored a message.
type OriginType string

const (
	OriginUser     OriginType = "USER"
	OriginCustomer OriginType = "CUSTOMER"
)

// Content is the message body with its closed type tag.
type Content struct {
	Text        *string `json:"text"`
	MessageType string  `json:"messageType"`
}

type Sender struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	PhoneNumber string  `json:"phoneNumber"`
}

// ReplySnapshot is a point-in-time copy of the parent message's key
// fields, captured when the reply is constructed. It is never refreshed
// if the parent later changes.
type ReplySnapshot struct {
	ID         string     `json:"id"`
	OriginType OriginType `json:"messageOriginType"`
	Body       Content    `json:"message"`
	SenderUser Sender     `json:"senderUser"`
	// MessageTime is epoch milliseconds; nil when the parent was not
	// resolvable.
	MessageTime *int64 `json:"messageTime"`
}

// Message is the unit cached and relayed. The JSON field names are the
// wire contract shared with downstream consumers.
type Message struct {
	ID             string         `json:"id"`
	Body           Content        `json:"message"`
	OriginType     OriginType     `json:"messageOriginType"`
	ReadCount      int            `json:"readCount"`
	DeliveryCount  int            `json:"deliveryCount"`
	ErroredCount   int            `json:"erroredCount"`
	DateCreated    time.Time      `json:"dateCreated"`
	DateUpdated    time.Time      `json:"dateUpdated"`
	ReplyMessageID *string        `json:"replyMessageId"`
	ReplyMessage   *ReplySnapshot `json:"replyMessage"`
	SenderUser     Sender         `json:"senderUser"`
	// MessageTime is epoch milliseconds derived from the platform event.
	MessageTime int64 `json:"messageTime"`

	// Reserved fields, carried for forward compatibility. No current
	// path populates them beyond their defaults.
	TotalCount     int            `json:"totalCount"`
	ErrorMessage   *string        `json:"errorMessage"`
	AdReferralData any            `json:"adReferralData"`
	Metadata       map[string]any `json:"messageMetadata"`
}

type NewMessageParams struct {
	ID             string
	Text           *string
	MessageType    string
	OriginType     OriginType
	ReplyMessageID *string
	ReplyMessage   *ReplySnapshot
	SenderUser     Sender
	MessageTime    int64
	Metadata       map[string]any
}

func New(p NewMessageParams) *Message {
	now := time.Now().UTC()
	meta := p.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &Message{
		ID:             p.ID,
		Body:           Content{Text: p.Text, MessageType: p.MessageType},
		OriginType:     p.OriginType,
		DateCreated:    now,
		DateUpdated:    now,
		ReplyMessageID: p.ReplyMessageID,
		ReplyMessage:   p.ReplyMessage,
		SenderUser:     p.SenderUser,
		MessageTime:    p.MessageTime,
		TotalCount:     1,
		Metadata:       meta,
	}
}
