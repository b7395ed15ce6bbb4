package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

type Event struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
}

type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type Attendee struct {
	Email string `json:"email"`
}

type eventListResponse struct {
	Items []*Event `json:"items"`
}

// ListEvents returns the primary calendar's events between timeMin and
// timeMax (RFC 3339), expanded to single events ordered by start time.
func (c *Client) ListEvents(ctx context.Context, accessToken, timeMin, timeMax string) ([]*Event, error) {
	listURL := fmt.Sprintf("%s/calendars/primary/events?timeMin=%s&timeMax=%s&singleEvents=true&orderBy=startTime",
		c.calendarBaseURL, url.QueryEscape(timeMin), url.QueryEscape(timeMax))

	var list eventListResponse
	if err := c.do(ctx, accessToken, http.MethodGet, listURL, nil, &list); err != nil {
		return nil, errors.Wrap(err, "Client.ListEvents")
	}
	if list.Items == nil {
		return []*Event{}, nil
	}
	return list.Items, nil
}

// CreateEvent inserts an event into the primary calendar and returns the
// created event as the API echoed it back.
func (c *Client) CreateEvent(ctx context.Context, accessToken string, event *Event) (*Event, error) {
	var created Event
	insertURL := c.calendarBaseURL + "/calendars/primary/events"
	if err := c.do(ctx, accessToken, http.MethodPost, insertURL, event, &created); err != nil {
		return nil, errors.Wrap(err, "Client.CreateEvent")
	}
	return &created, nil
}
