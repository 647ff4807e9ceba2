package database

import (
	"context"
	"sync"

	"riff-review/internal/models"
	"riff-review/internal/utils"
)

// MemoryStore keeps comments in process memory. It stands in for the
// comment service during development and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	comments map[string]*models.Comment
	order    []string // insertion order, so lists render oldest first
}

var _ CommentRepository = (*MemoryStore)(nil)

func NewMemoryStore(seed ...*models.Comment) *MemoryStore {
	s := &MemoryStore{comments: make(map[string]*models.Comment)}
	for _, c := range seed {
		if _, exists := s.comments[c.ID]; exists {
			continue
		}
		s.comments[c.ID] = c.Clone()
		s.order = append(s.order, c.ID)
	}
	return s
}

func (s *MemoryStore) GetComment(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, utils.NewNotFoundError("Comment", id)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) ListComments(_ context.Context, containerID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Comment, 0)
	for _, id := range s.order {
		if c := s.comments[id]; c.ContainerID == containerID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) AddComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.comments[comment.ID]; exists {
		return utils.NewAppError(utils.ErrDuplicate, "Comment already exists: "+comment.ID, nil)
	}
	s.comments[comment.ID] = comment.Clone()
	s.order = append(s.order, comment.ID)
	return nil
}

func (s *MemoryStore) UpdateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.comments[comment.ID]
	if !exists {
		return utils.NewNotFoundError("Comment", comment.ID)
	}
	stored.Content = comment.Content
	stored.UpdatedAt = comment.UpdatedAt
	return nil
}

func (s *MemoryStore) SetLike(_ context.Context, commentID, userID string, liked bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, exists := s.comments[commentID]
	if !exists {
		return 0, utils.NewNotFoundError("Comment", commentID)
	}
	if userID == "" {
		return 0, utils.NewInvalidInputError("user id is required to like a comment")
	}

	switch has := c.LikedByUser(userID); {
	case liked && !has:
		c.LikedBy = append(c.LikedBy, userID)
		c.Likes++
	case !liked && has:
		for i, id := range c.LikedBy {
			if id == userID {
				c.LikedBy = append(c.LikedBy[:i], c.LikedBy[i+1:]...)
				break
			}
		}
		if c.Likes > 0 {
			c.Likes--
		}
	}
	return c.Likes, nil
}

func (s *MemoryStore) RemoveComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.comments[id]; !exists {
		return utils.NewNotFoundError("Comment", id)
	}
	delete(s.comments, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
