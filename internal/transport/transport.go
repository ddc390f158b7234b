// internal/transport/transport.go
//
// Outbound chat transport boundary. The dispatcher hands this interface
// recipient handles and text; what a handle means is the transport's
// business. The webhook implementation treats handles as callback URLs and
// POSTs JSON payloads to them.

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MessageRef identifies a delivered message so it can later be deleted.
type MessageRef string

// Transport delivers messages to participants by opaque handle.
type Transport interface {
	// Send delivers text and returns a reference to the delivered message.
	Send(ctx context.Context, handle, text string) (MessageRef, error)

	// SendAnimation delivers a celebration animation. Best-effort.
	SendAnimation(ctx context.Context, handle, animationURL string) error

	// Delete removes a previously delivered message. Best-effort; failures
	// are logged by callers, never propagated into game state.
	Delete(ctx context.Context, handle string, ref MessageRef) error
}

// payload is the wire format POSTed to a participant's callback URL.
type payload struct {
	Type string `json:"type"` // "message" | "animation" | "delete"
	Ref  string `json:"ref,omitempty"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Webhook POSTs payloads to the handle URL.
type Webhook struct {
	client *http.Client
	log    zerolog.Logger
}

// NewWebhook constructs a webhook transport with a bounded request timeout.
func NewWebhook(log zerolog.Logger) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (w *Webhook) Send(ctx context.Context, handle, text string) (MessageRef, error) {
	ref := uuid.NewString()
	if err := w.post(ctx, handle, payload{Type: "message", Ref: ref, Text: text}); err != nil {
		return "", err
	}
	return MessageRef(ref), nil
}

func (w *Webhook) SendAnimation(ctx context.Context, handle, animationURL string) error {
	return w.post(ctx, handle, payload{Type: "animation", Ref: uuid.NewString(), URL: animationURL})
}

func (w *Webhook) Delete(ctx context.Context, handle string, ref MessageRef) error {
	return w.post(ctx, handle, payload{Type: "delete", Ref: string(ref)})
}

func (w *Webhook) post(ctx context.Context, handle string, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, handle, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bad handle %q: %w", handle, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver to %s: status %d", handle, resp.StatusCode)
	}
	return nil
}
