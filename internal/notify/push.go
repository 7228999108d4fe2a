package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/detailops/engagement-core/pkg/utils"
)

// PushPayload is the notification document delivered to the push
// gateway for each recipient. Shape is part of the dashboard contract.
type PushPayload struct {
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Tag                string   `json:"tag"`
	RequireInteraction bool     `json:"requireInteraction"`
	Data               PushData `json:"data"`
}

// PushData carries the routing fields the dashboard uses to open the
// right conversation.
type PushData struct {
	Type           string `json:"type"`
	EscalationID   string `json:"escalationId"`
	ConversationID string `json:"conversationId"`
	CustomerPhone  string `json:"customerPhone"`
}

type pushRequest struct {
	UserID  string      `json:"userId"`
	Payload PushPayload `json:"payload"`
}

type pushResponse struct {
	Success int `json:"success"`
}

// PushClient posts notifications to the internal push gateway, one
// request per recipient user.
type PushClient struct {
	url    string
	client *http.Client
}

// NewPushClient builds a client for the gateway endpoint.
func NewPushClient(url string, timeout time.Duration) *PushClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendPush delivers the payload to one user. Returns the number of
// subscriptions the gateway reached; zero with nil error means the user
// has no registered devices.
func (c *PushClient) SendPush(ctx context.Context, userID string, payload PushPayload) (int, error) {
	reqBody := utils.MustMarshalJSON(pushRequest{UserID: userID, Payload: payload})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return 0, fmt.Errorf("push gateway returned status %d body=%q", resp.StatusCode, string(body))
	}

	var pr pushResponse
	if err := utils.UnmarshalJSON(body, &pr); err != nil {
		return 0, fmt.Errorf("failed to decode push gateway response: %w body=%q", err, string(body))
	}

	return pr.Success, nil
}
