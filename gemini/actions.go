package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

// Summarize condenses content into key points and action items.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	prompt := "Summarize the following content in a concise way, highlighting key points and any action items:\n\n" + content
	return c.Generate(ctx, prompt)
}

// DraftReply drafts a professional reply to an email body.
func (c *Client) DraftReply(ctx context.Context, email string) (string, error) {
	prompt := "Draft a professional reply to the following email:\n\n" + email
	return c.Generate(ctx, prompt)
}

// ParsedEvent is the model's structured read of a free-text event
// description.
type ParsedEvent struct {
	Title       string   `json:"title"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
}

// ParseEvent asks the model to extract calendar event details from free
// text. The model tends to wrap its JSON in markdown fences, so those are
// stripped before unmarshalling. On malformed JSON the raw response is
// carried in the error message for debugging.
func (c *Client) ParseEvent(ctx context.Context, content string) (*ParsedEvent, error) {
	prompt := "Extract calendar event details from the following text. Return a JSON object with the following fields: title, startTime, endTime, date, description, and attendees.\n\n" + content

	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(raw))

	var event ParsedEvent
	if err := json.Unmarshal([]byte(cleaned), &event); err != nil {
		return nil, errors.Wrapf(apperrors.ErrBadResponse, "ParseEvent unmarshal: %v: %s", err, raw)
	}
	return &event, nil
}
