package google_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistantlabs/go-assistant-server/google"
	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

func newGmailServer(t *testing.T, handler http.HandlerFunc) *google.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return google.NewClient(google.WithBaseURLs(server.URL, server.URL))
}

func TestListMessages(t *testing.T) {
	client := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			require.Equal(t, "3", r.URL.Query().Get("maxResults"))
			_, _ = w.Write([]byte(`{"messages":[{"id":"m1","threadId":"t1"},{"id":"m2","threadId":"t2"}]}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/m1"):
			_, _ = w.Write([]byte(`{"id":"m1","snippet":"hello","payload":{"headers":[{"name":"Subject","value":"Hi"}]}}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/m2"):
			_, _ = w.Write([]byte(`{"id":"m2","snippet":"world"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	messages, err := client.ListMessages(context.Background(), "access-1", 3)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "Hi", messages[0].Header("Subject"))
	require.Equal(t, "world", messages[1].Snippet)
}

func TestSendMessageEncodesRaw(t *testing.T) {
	var got struct {
		Raw string `json:"raw"`
	}
	client := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sent-1"}`))
	})

	id, err := client.SendMessage(context.Background(), "access-1", "a@example.com", "Meeting", "See you at 3pm")
	require.NoError(t, err)
	require.Equal(t, "sent-1", id)

	decoded, err := base64.RawURLEncoding.DecodeString(got.Raw)
	require.NoError(t, err)
	require.Contains(t, string(decoded), "To: a@example.com")
	require.Contains(t, string(decoded), "Subject: Meeting")
	require.Contains(t, string(decoded), "See you at 3pm")
}

func TestHeaderLookupWithoutPayload(t *testing.T) {
	message := &google.Message{ID: "m1", Snippet: "bare"}
	require.Empty(t, message.Header("Subject"))
}

func Test401MapsToUnauthorized(t *testing.T) {
	client := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401}}`, http.StatusUnauthorized)
	})

	_, err := client.ListMessages(context.Background(), "expired-token", 1)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestListEvents(t *testing.T) {
	client := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		require.Equal(t, "2025-01-01T00:00:00Z", r.URL.Query().Get("timeMin"))
		require.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		require.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"e1","summary":"Standup"}]}`))
	})

	events, err := client.ListEvents(context.Background(), "access-1", "2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "Standup", events[0].Summary)
}

func TestCreateEvent(t *testing.T) {
	client := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var event google.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		require.Equal(t, "Planning", event.Summary)
		event.ID = "e2"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(event))
	})

	created, err := client.CreateEvent(context.Background(), "access-1", &google.Event{
		Summary: "Planning",
		Start:   google.EventTime{DateTime: "2025-01-01T10:00:00Z", TimeZone: "UTC"},
		End:     google.EventTime{DateTime: "2025-01-01T11:00:00Z", TimeZone: "UTC"},
	})
	require.NoError(t, err)
	require.Equal(t, "e2", created.ID)
}
