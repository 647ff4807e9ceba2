package handlers

import (
	"net/http"

	"riff-review/internal/api"
	"riff-review/internal/middleware"
	"riff-review/internal/utils"
	"riff-review/internal/websocket"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HandleWebSocket subscribes the connection to the notices and redirects the
// viewer session receives on one container. Viewers may be anonymous.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	upgrader := ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.CORS.CheckOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		containerID := r.URL.Query().Get("container")
		if containerID == "" {
			api.WriteError(w, utils.NewInvalidInputError("container query parameter is required"))
			return
		}

		var viewerID string
		if viewer, ok := middleware.GetViewerFromContext(r.Context()); ok {
			viewerID = viewer.UserID
		}

		// The upgrade writes its own response, so a freshly issued viewer
		// cookie has to be passed along explicitly.
		var header http.Header
		if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
			header = http.Header{"Set-Cookie": cookies}
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			// Upgrade has already written the HTTP error.
			log.Warn().Err(err).Str("container_id", containerID).Msg("WebSocket upgrade failed")
			return
		}

		client := &websocket.Client{
			Hub:         s.Hub,
			ContainerID: containerID,
			SessionID:   middleware.GetViewerSessionFromContext(r.Context()),
			ViewerID:    viewerID,
			Conn:        conn,
			Send:        make(chan []byte, 256),
		}
		select {
		case s.Hub.Register <- client:
		case <-s.Hub.Done():
			conn.Close()
			return
		}
		log.Debug().Str("container_id", containerID).Str("viewer_id", viewerID).Msg("WebSocket client connected")

		go client.WritePump()
		go client.ReadPump()
	}
}
