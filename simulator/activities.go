package simulator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"riff-review/internal/engine"
	"riff-review/internal/handlers"
	"riff-review/internal/models"

	"github.com/rs/zerolog/log"
)

var sampleComments = []string{
	"The bridge on track 4 is unreal.",
	"Production is a bit muddy but the songs carry it.",
	"Best closer of the year.",
	"Didn't click for me until the third listen.",
	"That bass tone though.",
	"Underrated record, glad someone reviewed it.",
}

// viewCache keeps the latest rendered view of each container.
type viewCache struct {
	mu    sync.RWMutex
	views map[string]*engine.ContainerView
}

func newViewCache() *viewCache {
	return &viewCache{views: make(map[string]*engine.ContainerView)}
}

func (c *viewCache) put(view *engine.ContainerView) {
	if view == nil {
		return
	}
	c.mu.Lock()
	c.views[view.ID] = view
	c.mu.Unlock()
}

func (c *viewCache) cardIDs(containerID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	view, ok := c.views[containerID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(view.Cards))
	for _, card := range view.Cards {
		ids = append(ids, card.Comment.ID)
	}
	return ids
}

func commentsPath(containerID string, parts ...string) string {
	path := "/containers/" + url.PathEscape(containerID) + "/comments"
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

// SimulateActivities fans connected viewers out to a small worker pool on
// every tick until ctx is done.
func (s *Simulator) SimulateActivities(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	const numWorkers = 5
	jobs := make(chan *SimulatedViewer, max(s.config.NumViewers, 1))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for viewer := range jobs {
				s.act(ctx, viewer)
			}
		}()
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			connected := make([]*SimulatedViewer, 0, len(s.viewers))
			for _, viewer := range s.viewers {
				if viewer.IsConnected {
					connected = append(connected, viewer)
				}
			}
			s.mu.RUnlock()

			for _, viewer := range connected {
				select {
				case jobs <- viewer:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// act runs one tick of a single viewer.
func (s *Simulator) act(ctx context.Context, viewer *SimulatedViewer) {
	viewer.mu.Lock()
	defer viewer.mu.Unlock()

	containerID := s.pickContainer()
	viewer.LastActive = time.Now()

	if s.chance(s.config.CommentProbability) {
		s.postComment(ctx, viewer, containerID)
	}
	if s.chance(s.config.LikeProbability) {
		s.likeComment(ctx, viewer, containerID)
	}
	if s.chance(s.config.EditProbability) {
		s.editComment(ctx, viewer, containerID)
	}
	if s.chance(s.config.DeleteProbability) {
		s.deleteComment(ctx, viewer, containerID)
	}
	if s.chance(s.config.ReportProbability) {
		s.reportComment(ctx, viewer, containerID)
	}
}

func (s *Simulator) listComments(ctx context.Context, viewer *SimulatedViewer, containerID string) (*engine.ContainerView, error) {
	var resp handlers.CommentResponse
	status, err := s.do(ctx, viewer, http.MethodGet, commentsPath(containerID), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("listing %s returned status %d", containerID, status)
	}
	s.cache.put(resp.View)
	return resp.View, nil
}

func (s *Simulator) postComment(ctx context.Context, viewer *SimulatedViewer, containerID string) {
	text := sampleComments[s.intn(len(sampleComments))]

	var resp handlers.CommentResponse
	status, err := s.do(ctx, viewer, http.MethodPost, commentsPath(containerID),
		handlers.SubmitCommentRequest{Text: text}, &resp)
	if err != nil {
		log.Debug().Err(err).Str("viewer", viewer.Name).Msg("Failed to post comment")
		return
	}
	if status != http.StatusCreated || resp.Comment == nil {
		return
	}

	s.cache.put(resp.View)
	viewer.Posted[containerID] = append(viewer.Posted[containerID], resp.Comment.ID)
	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
}

func (s *Simulator) likeComment(ctx context.Context, viewer *SimulatedViewer, containerID string) {
	ids := s.cache.cardIDs(containerID)
	if len(ids) == 0 {
		return
	}
	commentID := ids[s.intn(len(ids))]

	var resp handlers.CommentResponse
	status, err := s.do(ctx, viewer, http.MethodPost, commentsPath(containerID, commentID, "like"), nil, &resp)
	if err != nil {
		return
	}

	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	switch status {
	case http.StatusOK:
		s.cache.put(resp.View)
		s.stats.TotalLikes++
	case http.StatusUnauthorized:
		s.stats.LoginRedirects++
	}
}

func (s *Simulator) editComment(ctx context.Context, viewer *SimulatedViewer, containerID string) {
	posted := viewer.Posted[containerID]
	if len(posted) == 0 {
		return
	}
	commentID := posted[s.intn(len(posted))]

	status, err := s.do(ctx, viewer, http.MethodPost, commentsPath(containerID, commentID, "edit"), nil, nil)
	if err != nil || status != http.StatusOK {
		// Liked comments and lists this viewer is already editing in are refused.
		return
	}

	text := sampleComments[s.intn(len(sampleComments))] + " (edited)"
	var resp handlers.CommentResponse
	status, err = s.do(ctx, viewer, http.MethodPut, commentsPath(containerID, commentID, "edit"),
		handlers.ConfirmEditRequest{Text: text}, &resp)
	if err != nil || status != http.StatusOK {
		// Leave edit mode so this viewer's list is not left blocked.
		s.do(ctx, viewer, http.MethodDelete, commentsPath(containerID, commentID, "edit"), nil, nil)
		return
	}

	s.cache.put(resp.View)
	s.stats.mu.Lock()
	s.stats.TotalEdits++
	s.stats.mu.Unlock()
}

func (s *Simulator) deleteComment(ctx context.Context, viewer *SimulatedViewer, containerID string) {
	posted := viewer.Posted[containerID]
	if len(posted) == 0 {
		return
	}
	i := s.intn(len(posted))
	confirm := true

	var resp handlers.CommentResponse
	status, err := s.do(ctx, viewer, http.MethodPost, commentsPath(containerID, posted[i], "menu"),
		handlers.MenuActionRequest{Action: models.MenuDelete, Confirm: &confirm}, &resp)
	if err != nil || status != http.StatusOK {
		return
	}

	s.cache.put(resp.View)
	viewer.Posted[containerID] = append(posted[:i], posted[i+1:]...)
	s.stats.mu.Lock()
	s.stats.TotalDeletes++
	s.stats.mu.Unlock()
}

func (s *Simulator) reportComment(ctx context.Context, viewer *SimulatedViewer, containerID string) {
	ids := s.cache.cardIDs(containerID)
	if len(ids) == 0 {
		return
	}
	reason := "spam"

	status, err := s.do(ctx, viewer, http.MethodPost, commentsPath(containerID, ids[s.intn(len(ids))], "menu"),
		handlers.MenuActionRequest{Action: models.MenuReport, Reason: &reason}, nil)
	if err != nil || status != http.StatusOK {
		return
	}

	s.stats.mu.Lock()
	s.stats.TotalReports++
	s.stats.mu.Unlock()
}
