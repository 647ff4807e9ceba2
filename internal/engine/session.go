package engine

import (
	"strings"
	"time"

	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
)

// Viewer is who an operation acts for. SessionID keys the lists the viewer
// has open, so edits and pending submissions never leak between viewers.
// UserID and Token are empty for anonymous viewers.
type Viewer struct {
	SessionID string
	UserID    string
	Token     string
}

func (v Viewer) signedIn() bool {
	return v.UserID != "" && strings.TrimSpace(v.Token) != ""
}

const sweepInterval = time.Minute

// viewerSession is the UI state of every list one viewer has open.
type viewerSession struct {
	userID     string
	containers map[string]*container
	lastSeen   time.Time
}

// session returns the viewer's state, creating it on first use. A session
// whose user changed (sign in or out) starts over, since its rendered like
// states belong to the previous user.
func (c *CommentController) session(viewer Viewer) (*viewerSession, error) {
	if viewer.SessionID == "" {
		return nil, utils.NewInvalidInputError("viewer session is required")
	}

	now := c.deps.Now()
	c.sweep(now)

	s, ok := c.sessions[viewer.SessionID]
	if !ok || s.userID != viewer.UserID {
		s = &viewerSession{userID: viewer.UserID, containers: make(map[string]*container)}
		c.sessions[viewer.SessionID] = s
	}
	s.lastSeen = now
	return s, nil
}

// sweep drops sessions idle for longer than SessionIdleTimeout.
func (c *CommentController) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now

	for id, s := range c.sessions {
		if now.Sub(s.lastSeen) <= c.deps.SessionIdleTimeout {
			continue
		}
		for _, ct := range s.containers {
			if ct.editingID != "" {
				log.Info().Str("container_id", ct.id).Str("comment_id", ct.editingID).Msg("Released edit of idle viewer")
			}
		}
		delete(c.sessions, id)
	}
}

// Sessions returns the number of viewer sessions with open lists.
func (c *CommentController) Sessions() int {
	return len(c.sessions)
}
