package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"riff-review/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub("/login")
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func subscribe(hub *Hub, containerID, sessionID string) *Client {
	client := &Client{Hub: hub, ContainerID: containerID, SessionID: sessionID, Send: make(chan []byte, 8)}
	hub.Register <- client
	return client
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case <-client.Send:
		t.Fatalf("client %s/%s received an event meant for someone else", client.ContainerID, client.SessionID)
	case <-time.After(50 * time.Millisecond):
	}
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case payload := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestHubNotifiesOnlyTheActingSession(t *testing.T) {
	hub := startHub(t)
	watcher := subscribe(hub, "review-1", "tab-a")
	secondTab := subscribe(hub, "review-1", "tab-a")
	otherViewer := subscribe(hub, "review-1", "tab-b")
	otherContainer := subscribe(hub, "review-2", "tab-a")

	hub.Notify(context.Background(), models.Notice{
		SessionID:   "tab-a",
		Kind:        models.NoticeSuccess,
		ContainerID: "review-1",
		CommentID:   "7",
		Message:     "Comment updated.",
	})

	event := receive(t, watcher)
	assert.Equal(t, EventNotice, event.Type)
	require.NotNil(t, event.Notice)
	assert.Equal(t, "7", event.Notice.CommentID)
	assert.Equal(t, models.NoticeSuccess, event.Notice.Kind)
	assert.Equal(t, EventNotice, receive(t, secondTab).Type)

	expectSilence(t, otherViewer)
	expectSilence(t, otherContainer)
}

func TestHubRedirectToLogin(t *testing.T) {
	hub := startHub(t)
	watcher := subscribe(hub, "review-1", "tab-a")
	bystander := subscribe(hub, "review-1", "tab-b")

	hub.RedirectToLogin(context.Background(), "tab-a", "review-1")

	event := receive(t, watcher)
	assert.Equal(t, EventRedirect, event.Type)
	assert.Equal(t, "/login", event.Redirect)
	expectSilence(t, bystander)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	watcher := subscribe(hub, "review-1", "tab-a")
	assert.Equal(t, 1, hub.ClientCount("review-1"))

	hub.Unregister <- watcher
	_, open := <-watcher.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount("review-1"))
}

func TestHubNotifyAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub("/login")
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Notify(context.Background(), models.Notice{ContainerID: "review-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked after the hub stopped")
	}
}
