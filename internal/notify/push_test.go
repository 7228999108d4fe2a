package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushClient_SendPush(t *testing.T) {
	var received pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": 2}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL, time.Second)
	payload := PushPayload{
		Title:              "Customer needs a human",
		Body:               "Maria asked for the owner",
		Tag:                "escalation-esc-1",
		RequireInteraction: true,
		Data: PushData{
			Type:           "escalation",
			EscalationID:   "esc-1",
			ConversationID: "conv-1",
			CustomerPhone:  "+15550001111",
		},
	}

	reached, err := client.SendPush(context.Background(), "admin-1", payload)

	assert.NoError(t, err)
	assert.Equal(t, 2, reached)
	assert.Equal(t, "admin-1", received.UserID)
	assert.Equal(t, "escalation-esc-1", received.Payload.Tag)
	assert.Equal(t, "esc-1", received.Payload.Data.EscalationID)
}

func TestPushClient_SendPush_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPushClient(server.URL, time.Second)
	reached, err := client.SendPush(context.Background(), "admin-1", PushPayload{})

	assert.Error(t, err)
	assert.Zero(t, reached)
	assert.Contains(t, err.Error(), "status 500")
}

func TestPushClient_SendPush_NoSubscriptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": 0}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL, time.Second)
	reached, err := client.SendPush(context.Background(), "admin-ghost", PushPayload{})

	assert.NoError(t, err)
	assert.Zero(t, reached)
}
