// Package events pushes addon set changes to connected UIs over a websocket
// channel so the TV shell refreshes its rows without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/centrifugal/centrifuge"
	"github.com/ogero/stremio-hub/internal/common"
)

// AddonEvent describes a mutation of the installed addon set.
type AddonEvent struct {
	// Type is "installed" or "uninstalled".
	Type string `json:"type"`
	// AddonID identifies the affected addon.
	AddonID string `json:"addonId"`
	// AddonName is the display name when known.
	AddonName string `json:"addonName,omitempty"`
}

// Hub broadcasts addon events to websocket subscribers.
type Hub interface {
	// Handler handles incoming websocket connections.
	http.Handler
	// PublishAddonEvent broadcasts event to every subscriber of the addon
	// channel.
	PublishAddonEvent(ctx context.Context, event AddonEvent) error
}

type hub struct {
	channel          string
	node             *centrifuge.Node
	websocketHandler *centrifuge.WebsocketHandler
}

// NewHub creates a Hub broadcasting on the given channel.
func NewHub(channel string) (Hub, error) {
	h := &hub{channel: channel}

	node, err := centrifuge.New(centrifuge.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to centrifuge.New: %w", err)
	}
	h.node = node

	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		return centrifuge.ConnectReply{}, nil
	})

	node.OnConnect(func(client *centrifuge.Client) {
		client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
			if e.Channel != channel {
				cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
				return
			}

			cb(centrifuge.SubscribeReply{
				Options: centrifuge.SubscribeOptions{},
			}, nil)
		})
	})

	if err := node.Run(); err != nil {
		return nil, fmt.Errorf("failed to centrifuge.Node.Run: %w", err)
	}

	h.websocketHandler = centrifuge.NewWebsocketHandler(node, centrifuge.WebsocketConfig{
		ReadBufferSize:     1024,
		UseWriteBufferPool: true,
	})

	return h, nil
}

// PublishAddonEvent broadcasts event to every subscriber of the addon channel.
func (h *hub) PublishAddonEvent(ctx context.Context, event AddonEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to json.Marshal: %w", err)
	}

	if _, err := h.node.Publish(h.channel, b); err != nil {
		return fmt.Errorf("failed to centrifuge.Node.Publish: %w", err)
	}

	common.Log.DebugContext(ctx, "Published addon event", "type", event.Type, "addon", event.AddonID)

	return nil
}

// ServeHTTP handles incoming websocket connections.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	newCtx := centrifuge.SetCredentials(ctx, &centrifuge.Credentials{})
	r = r.WithContext(newCtx)

	h.websocketHandler.ServeHTTP(w, r)
}
