package whatsapp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client sends outbound messages through the Graph API.
type Client struct {
	http          *resty.Client
	phoneNumberID string
}

func NewClient(baseURL, accessToken, phoneNumberID string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(accessToken).
		SetTimeout(10 * time.Second)

	return &Client{
		http:          c,
		phoneNumberID: phoneNumberID,
	}
}

type sendTextRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             Text   `json:"text"`
}

func (c *Client) SendText(ctx context.Context, to, body string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendTextRequest{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             Text{Body: body},
		}).
		Post(fmt.Sprintf("/%s/messages", c.phoneNumberID))
	if err != nil {
		return fmt.Errorf("graph api send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("graph api send: status %s: %s", resp.Status(), resp.String())
	}
	return nil
}
