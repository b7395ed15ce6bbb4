package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/assistantlabs/go-assistant-server/internal/utils"
)

// Message is a Gmail message in the shape the UI consumes.
type Message struct {
	ID       string       `json:"id"`
	ThreadID string       `json:"threadId,omitempty"`
	Snippet  string       `json:"snippet,omitempty"`
	Payload  *MessagePart `json:"payload,omitempty"`
}

type MessagePart struct {
	MimeType string   `json:"mimeType,omitempty"`
	Headers  []Header `json:"headers,omitempty"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Header returns the first header with the given name, case-insensitively.
// Messages fetched without metadata have no payload; those yield "".
func (m *Message) Header(name string) string {
	for _, h := range utils.Value(m.Payload).Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

type messageListResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
}

// ListMessages fetches the newest message ids and then each message's
// metadata, one call per message, matching Gmail's list-then-get API shape.
func (c *Client) ListMessages(ctx context.Context, accessToken string, maxResults int) ([]*Message, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	listURL := fmt.Sprintf("%s/users/me/messages?maxResults=%d", c.gmailBaseURL, maxResults)
	var list messageListResponse
	if err := c.do(ctx, accessToken, http.MethodGet, listURL, nil, &list); err != nil {
		return nil, errors.Wrap(err, "Client.ListMessages list")
	}

	messages := make([]*Message, 0, len(list.Messages))
	for _, item := range list.Messages {
		getURL := fmt.Sprintf("%s/users/me/messages/%s?format=metadata&metadataHeaders=From&metadataHeaders=Subject&metadataHeaders=Date",
			c.gmailBaseURL, url.PathEscape(item.ID))
		var message Message
		if err := c.do(ctx, accessToken, http.MethodGet, getURL, nil, &message); err != nil {
			return nil, errors.Wrapf(err, "Client.ListMessages get %s", item.ID)
		}
		messages = append(messages, &message)
	}
	return messages, nil
}

type sendMessageRequest struct {
	Raw string `json:"raw"`
}

type sendMessageResponse struct {
	ID string `json:"id"`
}

// SendMessage assembles a plain-text RFC 2822 message and sends it through
// the authenticated user's mailbox. Returns the sent message id.
func (c *Client) SendMessage(ctx context.Context, accessToken, to, subject, body string) (string, error) {
	raw := strings.Join([]string{
		`Content-Type: text/plain; charset="UTF-8"`,
		"MIME-Version: 1.0",
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\n")

	req := sendMessageRequest{Raw: base64.RawURLEncoding.EncodeToString([]byte(raw))}
	var resp sendMessageResponse
	sendURL := c.gmailBaseURL + "/users/me/messages/send"
	if err := c.do(ctx, accessToken, http.MethodPost, sendURL, req, &resp); err != nil {
		return "", errors.Wrap(err, "Client.SendMessage")
	}
	return resp.ID, nil
}
