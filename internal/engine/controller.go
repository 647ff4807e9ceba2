// Package engine holds the comment interaction controller: the per-card
// view/edit state machine, optimistic likes, and the delete/report/submit
// flows for comment lists.
package engine

import (
	"context"
	"strings"
	"time"

	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
)

// User-facing notice texts.
const (
	msgLikedNotEditable = "Comments that already have likes can't be edited."
	msgFinishEditing    = "Finish editing the current comment first."
	msgEdited           = "Comment updated."
	msgEditFailed       = "Couldn't update the comment. Please try again."
	msgDeleteConfirm    = "Delete this comment?"
	msgDeleted          = "Comment deleted."
	msgDeleteFailed     = "Couldn't delete the comment. Please try again."
	msgReportPrompt     = "Why are you reporting this comment?"
	msgReported         = "Thanks, the comment was reported."
	msgSignInToLike     = "Please sign in to like comments."
	msgLikeFailed       = "Couldn't update the like. Please try again."
	msgSubmitFailed     = "Couldn't post the comment. Please try again."
)

// CommentController mediates every state transition of the comment cards in
// the lists its viewers have loaded. Each viewer session gets its own copy of
// a list, so one viewer's edit or submission never blocks another. It is not
// safe for concurrent use; the comment actor is its only driver outside tests.
type CommentController struct {
	deps      Deps
	sessions  map[string]*viewerSession
	lastSweep time.Time
}

func NewCommentController(deps Deps) *CommentController {
	deps.applyDefaults()
	return &CommentController{
		deps:     deps,
		sessions: make(map[string]*viewerSession),
	}
}

// LoadContainer returns the viewer's view of a container. The list is read
// from the repository on first use and again on every later load, unless the
// viewer has an edit or submission open in it.
func (c *CommentController) LoadContainer(ctx context.Context, viewer Viewer, containerID string) (*ContainerView, error) {
	ct, err := c.open(ctx, viewer, containerID, true)
	if err != nil {
		return nil, err
	}
	return ct.view(), nil
}

// Snapshot returns the viewer's view of an already loaded container, or nil.
func (c *CommentController) Snapshot(viewer Viewer, containerID string) *ContainerView {
	s, ok := c.sessions[viewer.SessionID]
	if !ok {
		return nil
	}
	ct, ok := s.containers[containerID]
	if !ok {
		return nil
	}
	return ct.view()
}

func (c *CommentController) container(ctx context.Context, viewer Viewer, containerID string) (*container, error) {
	return c.open(ctx, viewer, containerID, false)
}

func (c *CommentController) open(ctx context.Context, viewer Viewer, containerID string, refresh bool) (*container, error) {
	if containerID == "" {
		return nil, utils.NewInvalidInputError("container id is required")
	}
	s, err := c.session(viewer)
	if err != nil {
		return nil, err
	}

	if ct, ok := s.containers[containerID]; ok {
		if refresh && ct.idle() {
			if err := c.render(ctx, ct, s.userID); err != nil {
				return nil, err
			}
		}
		return ct, nil
	}

	ct := &container{id: containerID, submitEnabled: true}
	if err := c.render(ctx, ct, s.userID); err != nil {
		return nil, err
	}
	s.containers[containerID] = ct
	log.Debug().Str("container_id", containerID).Int("cards", len(ct.cards)).Msg("Loaded comment container")
	return ct, nil
}

// render replaces a container's cards with the stored comments, marking the
// ones userID likes.
func (c *CommentController) render(ctx context.Context, ct *container, userID string) error {
	comments, err := c.deps.Repository.ListComments(ctx, ct.id)
	if err != nil {
		return err
	}
	ct.cards = make([]*card, 0, len(comments))
	for _, comment := range comments {
		ct.cards = append(ct.cards, newCard(comment, comment.LikedByUser(userID)))
	}
	ct.emptyState = len(ct.cards) == 0
	if ct.scrollTarget != "" && ct.find(ct.scrollTarget) == nil {
		ct.scrollTarget = ""
	}
	return nil
}

// lookup resolves a rendered card. A card the viewer has not seen yet is
// looked for once more in a fresh copy of the list. A missing card is a
// silent not-found: logged, never shown to the viewer.
func (c *CommentController) lookup(ctx context.Context, viewer Viewer, containerID, commentID string) (*container, *card, error) {
	ct, err := c.container(ctx, viewer, containerID)
	if err != nil {
		return nil, nil, err
	}
	cd := ct.find(commentID)
	if cd == nil && ct.idle() {
		if err := c.render(ctx, ct, viewer.UserID); err != nil {
			return nil, nil, err
		}
		cd = ct.find(commentID)
	}
	if cd == nil {
		log.Debug().Str("container_id", containerID).Str("comment_id", commentID).Msg("Comment card not rendered")
		return ct, nil, utils.NewNotFoundError("Comment", commentID)
	}
	return ct, cd, nil
}

func (c *CommentController) notify(ctx context.Context, viewer Viewer, kind models.NoticeKind, containerID, commentID, message string) {
	c.deps.Notifier.Notify(ctx, models.Notice{
		SessionID:   viewer.SessionID,
		Kind:        kind,
		ContainerID: containerID,
		CommentID:   commentID,
		Message:     message,
		CreatedAt:   c.deps.Now(),
	})
}

// EnterEditMode swaps a card's body for an edit form. Comments with likes
// can't be edited and only one card per container may be editing.
func (c *CommentController) EnterEditMode(ctx context.Context, viewer Viewer, containerID, commentID string) (err error) {
	defer c.deps.Metrics.Track("enter_edit", time.Now(), &err)

	ct, cd, err := c.lookup(ctx, viewer, containerID, commentID)
	if err != nil {
		return err
	}

	stored, err := c.deps.Repository.GetComment(ctx, commentID)
	if err != nil {
		log.Debug().Err(err).Str("comment_id", commentID).Msg("Edit aborted, comment not in store")
		return err
	}

	if ct.editingID == commentID {
		cd.form.Focused = true
		return nil
	}
	if ct.blocked {
		c.notify(ctx, viewer, models.NoticeBlocking, containerID, commentID, msgFinishEditing)
		return utils.NewAppError(utils.ErrEditInProgress, "Another comment is being edited", nil)
	}
	if stored.Likes > 0 {
		c.notify(ctx, viewer, models.NoticeBlocking, containerID, commentID, msgLikedNotEditable)
		return utils.NewAppError(utils.ErrCommentLiked, "Liked comments can't be edited", nil)
	}

	ct.blocked = true
	ct.editingID = commentID
	cd.state = Editing
	cd.form = &EditForm{Draft: cd.comment.Content, Focused: true}
	return nil
}

// ConfirmEdit applies the trimmed text when it is non-empty and changed, and
// leaves edit mode whatever the outcome. Only the viewer who entered edit
// mode has the card in the editing state.
func (c *CommentController) ConfirmEdit(ctx context.Context, viewer Viewer, containerID, commentID, newText string) (err error) {
	defer c.deps.Metrics.Track("confirm_edit", time.Now(), &err)

	ct, cd, err := c.lookup(ctx, viewer, containerID, commentID)
	if err != nil {
		return err
	}
	if cd.state != Editing {
		return utils.NewInvalidInputError("comment is not being edited")
	}
	defer c.exitEdit(ct, cd)

	text := strings.TrimSpace(newText)
	if text == "" || text == cd.comment.Content {
		return nil
	}

	stored, err := c.deps.Repository.GetComment(ctx, commentID)
	if err == nil {
		stored.Content = text
		stored.UpdatedAt = c.deps.Now()
		err = c.deps.Repository.UpdateComment(ctx, stored)
	}
	if err != nil {
		log.Error().Err(err).Str("comment_id", commentID).Msg("Failed to save edited comment")
		c.notify(ctx, viewer, models.NoticeError, containerID, commentID, msgEditFailed)
		return err
	}

	cd.comment.Content = text
	cd.comment.UpdatedAt = stored.UpdatedAt
	c.notify(ctx, viewer, models.NoticeSuccess, containerID, commentID, msgEdited)
	log.Info().Str("comment_id", commentID).Msg("Comment edited")
	return nil
}

// CancelEdit leaves edit mode and drops the draft.
func (c *CommentController) CancelEdit(ctx context.Context, viewer Viewer, containerID, commentID string) error {
	ct, cd, err := c.lookup(ctx, viewer, containerID, commentID)
	if err != nil {
		return err
	}
	if cd.state == Editing {
		c.exitEdit(ct, cd)
	}
	return nil
}

func (c *CommentController) exitEdit(ct *container, cd *card) {
	cd.state = Viewing
	cd.form = nil
	if ct.editingID == cd.comment.ID {
		ct.editingID = ""
		ct.blocked = false
	}
}

// DispatchMenuAction runs the action chosen from a card's menu. dialog
// answers the delete confirmation and the report prompt; nil falls back to
// the controller's Confirmer.
func (c *CommentController) DispatchMenuAction(ctx context.Context, viewer Viewer, containerID, commentID string, action models.MenuAction, dialog Confirmer) error {
	if !action.Valid() {
		return utils.NewInvalidInputError("unknown menu action: " + string(action))
	}
	if action == models.MenuEdit {
		return c.EnterEditMode(ctx, viewer, containerID, commentID)
	}
	if dialog == nil {
		dialog = c.deps.Confirmer
	}

	ct, _, err := c.lookup(ctx, viewer, containerID, commentID)
	if err != nil {
		return err
	}
	if ct.blocked {
		return utils.NewAppError(utils.ErrEditInProgress, "Container is blocked while a comment is edited", nil)
	}

	switch action {
	case models.MenuDelete:
		return c.deleteComment(ctx, viewer, ct, commentID, dialog)
	default:
		return c.reportComment(ctx, viewer, ct, commentID, dialog)
	}
}

func (c *CommentController) deleteComment(ctx context.Context, viewer Viewer, ct *container, commentID string, dialog Confirmer) (err error) {
	defer c.deps.Metrics.Track("delete_comment", time.Now(), &err)

	ok, err := dialog.Confirm(ctx, msgDeleteConfirm)
	if err != nil {
		log.Warn().Err(err).Str("comment_id", commentID).Msg("Delete confirmation failed, treating as cancel")
		return nil
	}
	if !ok {
		return nil
	}

	if err := c.deps.Repository.RemoveComment(ctx, commentID); err != nil {
		log.Error().Err(err).Str("comment_id", commentID).Msg("Failed to delete comment")
		c.notify(ctx, viewer, models.NoticeError, ct.id, commentID, msgDeleteFailed)
		return err
	}

	ct.remove(commentID)
	c.notify(ctx, viewer, models.NoticeSuccess, ct.id, commentID, msgDeleted)
	log.Info().Str("comment_id", commentID).Msg("Comment deleted")
	return nil
}

func (c *CommentController) reportComment(ctx context.Context, viewer Viewer, ct *container, commentID string, dialog Confirmer) error {
	reason, ok, err := dialog.Prompt(ctx, msgReportPrompt)
	if err != nil {
		log.Warn().Err(err).Str("comment_id", commentID).Msg("Report prompt failed, treating as cancel")
		return nil
	}
	reason = strings.TrimSpace(reason)
	if !ok || reason == "" {
		return nil
	}

	// TODO: forward reports to the moderation endpoint once the gateway exposes one.
	log.Info().Str("comment_id", commentID).Str("reason", reason).Msg("Comment reported")
	c.notify(ctx, viewer, models.NoticeSuccess, ct.id, commentID, msgReported)
	return nil
}

// ToggleLike flips the viewer's like immediately and then awaits the backing
// update. A failed update reverts the flip; the counter follows because it is
// derived from the same state. Likes are recorded per signed-in user.
func (c *CommentController) ToggleLike(ctx context.Context, viewer Viewer, containerID, commentID string) (err error) {
	defer c.deps.Metrics.Track("toggle_like", time.Now(), &err)

	if !viewer.signedIn() {
		c.notify(ctx, viewer, models.NoticeBlocking, containerID, commentID, msgSignInToLike)
		c.deps.Navigator.RedirectToLogin(ctx, viewer.SessionID, containerID)
		return utils.NewAppError(utils.ErrUnauthenticated, "Sign in required", nil)
	}

	ct, cd, err := c.lookup(ctx, viewer, containerID, commentID)
	if err != nil {
		return err
	}
	if ct.blocked {
		return utils.NewAppError(utils.ErrEditInProgress, "Container is blocked while a comment is edited", nil)
	}

	before := cd.like
	cd.like.toggle()

	count, err := c.persistLike(ctx, viewer.UserID, commentID, cd.like.Liked)
	if err != nil {
		cd.like = before
		log.Warn().Err(err).Str("comment_id", commentID).Str("user_id", viewer.UserID).Msg("Like update failed, reverted")
		c.notify(ctx, viewer, models.NoticeError, containerID, commentID, msgLikeFailed)
		return utils.NewAppError(utils.ErrBackend, "Failed to update like", err)
	}

	cd.like.commit(count)
	cd.comment.Likes = cd.like.BaseCount
	cd.comment.Liked = cd.like.BaseLiked
	return nil
}

// persistLike makes the backing call and then records the like in the
// repository, returning the stored count. If the repository write fails the
// backing call is undone so both sides keep the old state.
func (c *CommentController) persistLike(ctx context.Context, userID, commentID string, liked bool) (int, error) {
	if err := c.deps.LikeUpdater.UpdateLike(ctx, commentID, userID, liked); err != nil {
		return 0, err
	}

	count, err := c.deps.Repository.SetLike(ctx, commentID, userID, liked)
	if err != nil {
		if undoErr := c.deps.LikeUpdater.UpdateLike(ctx, commentID, userID, !liked); undoErr != nil {
			log.Error().Err(undoErr).
				Str("comment_id", commentID).
				Str("user_id", userID).
				Bool("liked", liked).
				Msg("Failed to undo like update after store failure")
		}
		return 0, err
	}
	return count, nil
}

// SubmitNewComment posts rawText as a new comment at the end of the list.
// The submit control is disabled while the submission runs and re-enabled on
// every path.
func (c *CommentController) SubmitNewComment(ctx context.Context, viewer Viewer, containerID, rawText string) (comment *models.Comment, err error) {
	defer c.deps.Metrics.Track("submit_comment", time.Now(), &err)

	ct, err := c.container(ctx, viewer, containerID)
	if err != nil {
		return nil, err
	}
	if ct.submitting {
		return nil, utils.NewAppError(utils.ErrSubmitInProgress, "A comment is already being submitted", nil)
	}

	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, utils.NewInvalidInputError("comment text is required")
	}

	ct.input = rawText
	ct.submitting = true
	ct.submitEnabled = false
	defer func() {
		ct.submitting = false
		ct.submitEnabled = true
	}()

	comment, err = c.buildComment(containerID, text)
	if err == nil {
		err = c.deps.Repository.AddComment(ctx, comment)
	}
	if err != nil {
		log.Error().Err(err).Str("container_id", containerID).Msg("Failed to submit comment")
		c.notify(ctx, viewer, models.NoticeError, containerID, "", msgSubmitFailed)
		return nil, utils.AsAppError(err)
	}

	ct.input = ""
	ct.emptyState = false
	ct.cards = append(ct.cards, newCard(comment, false))
	ct.scrollTarget = comment.ID
	log.Info().Str("container_id", containerID).Str("comment_id", comment.ID).Msg("Comment submitted")
	return comment.Clone(), nil
}

func (c *CommentController) buildComment(containerID, text string) (*models.Comment, error) {
	id, err := c.deps.NewID()
	if err != nil {
		return nil, utils.NewAppError(utils.ErrBackend, "Failed to generate comment id", err)
	}
	now := c.deps.Now()
	return &models.Comment{
		ID:          id,
		ContainerID: containerID,
		UserID:      c.deps.Author.UserID,
		DisplayName: c.deps.Author.DisplayName,
		AvatarURL:   c.deps.Author.AvatarURL,
		Content:     text,
		Likes:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
