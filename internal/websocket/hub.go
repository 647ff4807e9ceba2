package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"riff-review/internal/models"

	"github.com/rs/zerolog/log"
)

// Event types pushed to subscribers.
const (
	EventNotice   = "notice"
	EventRedirect = "redirect"
)

// Event is the JSON frame sent to a viewer's clients watching a container.
type Event struct {
	Type        string         `json:"type"`
	ContainerID string         `json:"containerId"`
	Notice      *models.Notice `json:"notice,omitempty"`
	Redirect    string         `json:"redirect,omitempty"`
}

// MessageToSend is a payload addressed to one viewer session's clients on a
// container.
type MessageToSend struct {
	ContainerID string
	SessionID   string
	Payload     []byte
}

// publishTimeout bounds how long Notify may block the caller.
const publishTimeout = time.Second

// Hub maintains the clients watching each container and delivers notices and
// redirects to the viewer session they concern. It implements the
// controller's Notifier and Navigator.
type Hub struct {
	// Registered clients, keyed by the container they watch.
	Clients map[string]map[*Client]bool

	// Messages for one viewer's subscribers.
	Publish chan *MessageToSend

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	loginPath string
	done      chan struct{}
	mu        sync.RWMutex
}

func NewHub(loginPath string) *Hub {
	return &Hub{
		Publish:    make(chan *MessageToSend, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[string]map[*Client]bool),
		loginPath:  loginPath,
		done:       make(chan struct{}),
	}
}

// Run processes registrations and publishes until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			log.Info().Msg("WebSocket hub stopped")
			return

		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.ContainerID]; !ok {
				h.Clients[client.ContainerID] = make(map[*Client]bool)
			}
			h.Clients[client.ContainerID][client] = true
			log.Debug().
				Str("container_id", client.ContainerID).
				Int("connections", len(h.Clients[client.ContainerID])).
				Msg("WebSocket client registered")
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if watchers, ok := h.Clients[client.ContainerID]; ok {
				if _, ok := watchers[client]; ok {
					delete(watchers, client)
					close(client.Send)
					if len(watchers) == 0 {
						delete(h.Clients, client.ContainerID)
					}
					log.Debug().Str("container_id", client.ContainerID).Msg("WebSocket client unregistered")
				}
			}
			h.mu.Unlock()

		case message := <-h.Publish:
			h.mu.RLock()
			delivered := 0
			for client := range h.Clients[message.ContainerID] {
				if client.SessionID != message.SessionID {
					continue
				}
				select {
				case client.Send <- message.Payload:
					delivered++
				default:
					log.Warn().Str("container_id", message.ContainerID).Msg("Send buffer full, message dropped for client")
				}
			}
			h.mu.RUnlock()
			if delivered == 0 {
				log.Debug().Str("container_id", message.ContainerID).Msg("No connected client for viewer session")
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, watchers := range h.Clients {
		for client := range watchers {
			close(client.Send)
		}
		delete(h.Clients, id)
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connections watching containerID.
func (h *Hub) ClientCount(containerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[containerID])
}

// Notify pushes a notice to the clients of the session that caused it.
func (h *Hub) Notify(ctx context.Context, notice models.Notice) {
	ev := log.Info()
	if notice.Kind == models.NoticeError {
		ev = log.Warn()
	}
	ev.Str("container_id", notice.ContainerID).
		Str("comment_id", notice.CommentID).
		Str("kind", string(notice.Kind)).
		Msg(notice.Message)

	h.send(ctx, notice.SessionID, Event{Type: EventNotice, ContainerID: notice.ContainerID, Notice: &notice})
}

// RedirectToLogin tells one viewer session's clients on a container to
// navigate to the login entry point.
func (h *Hub) RedirectToLogin(ctx context.Context, sessionID, containerID string) {
	h.send(ctx, sessionID, Event{Type: EventRedirect, ContainerID: containerID, Redirect: h.loginPath})
}

func (h *Hub) send(ctx context.Context, sessionID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode websocket event")
		return
	}

	message := &MessageToSend{ContainerID: event.ContainerID, SessionID: sessionID, Payload: payload}
	select {
	case h.Publish <- message:
	case <-h.done:
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Str("container_id", event.ContainerID).Msg("Context done before event was queued")
	case <-time.After(publishTimeout):
		log.Warn().Str("container_id", event.ContainerID).Msg("Timeout queuing event, hub might be blocked")
	}
}
