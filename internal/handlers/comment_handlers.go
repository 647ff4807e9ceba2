package handlers

import (
	"net/http"

	"riff-review/internal/api"
	"riff-review/internal/engine"
	"riff-review/internal/engine/actors"
	"riff-review/internal/middleware"
	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
)

// SubmitCommentRequest represents a request to post a new comment
type SubmitCommentRequest struct {
	Text string `json:"text"`
}

// ConfirmEditRequest carries the edited text
type ConfirmEditRequest struct {
	Text string `json:"text"`
}

// MenuActionRequest carries a menu choice and the viewer's answers to the
// dialogs it opens. A missing answer means the dialog was dismissed.
type MenuActionRequest struct {
	Action  models.MenuAction `json:"action"`
	Confirm *bool             `json:"confirm,omitempty"`
	Reason  *string           `json:"reason,omitempty"`
}

// CommentResponse is the body of every successful comment operation.
type CommentResponse struct {
	View    *engine.ContainerView `json:"view"`
	Comment *models.Comment       `json:"comment,omitempty"`
}

// CommentErrorResponse reports a refused or failed operation along with the
// container as it is afterwards.
type CommentErrorResponse struct {
	api.ErrorResponse
	View *engine.ContainerView `json:"view,omitempty"`
}

// viewerFor identifies who a comment request acts for: the browser's viewer
// session plus, when signed in, the user and token.
func viewerFor(r *http.Request) engine.Viewer {
	viewer := engine.Viewer{SessionID: middleware.GetViewerSessionFromContext(r.Context())}
	if v, ok := middleware.GetViewerFromContext(r.Context()); ok {
		viewer.UserID = v.UserID
		viewer.Token = v.Token
	}
	return viewer
}

// HandleListComments returns the viewer's rendered container
func (s *Server) HandleListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, &actors.LoadContainerMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
		}, http.StatusOK)
	}
}

// HandleSubmitComment posts a new comment to the end of the list
func (s *Server) HandleSubmitComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitCommentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s.dispatch(w, &actors.SubmitCommentMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
			Content:     req.Text,
		}, http.StatusCreated)
	}
}

// HandleEnterEdit swaps a card into edit mode
func (s *Server) HandleEnterEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, &actors.EnterEditMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
			CommentID:   r.PathValue("commentID"),
		}, http.StatusOK)
	}
}

// HandleConfirmEdit applies the edited text
func (s *Server) HandleConfirmEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmEditRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s.dispatch(w, &actors.ConfirmEditMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
			CommentID:   r.PathValue("commentID"),
			Content:     req.Text,
		}, http.StatusOK)
	}
}

// HandleCancelEdit leaves edit mode without saving
func (s *Server) HandleCancelEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, &actors.CancelEditMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
			CommentID:   r.PathValue("commentID"),
		}, http.StatusOK)
	}
}

// HandleMenuAction runs edit, delete or report from a card's menu
func (s *Server) HandleMenuAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MenuActionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !req.Action.Valid() {
			api.WriteError(w, utils.NewInvalidInputError("Unknown menu action: "+string(req.Action)))
			return
		}
		s.dispatch(w, &actors.MenuActionMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
			CommentID:   r.PathValue("commentID"),
			Action:      req.Action,
			Dialog:      engine.AnsweredDialog{Confirmed: req.Confirm, Reason: req.Reason},
		}, http.StatusOK)
	}
}

// HandleToggleLike flips the signed-in viewer's like. Anonymous viewers are
// sent to the login page.
func (s *Server) HandleToggleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, &actors.ToggleLikeMsg{
			Viewer:      viewerFor(r),
			ContainerID: r.PathValue("containerID"),
			CommentID:   r.PathValue("commentID"),
		}, http.StatusOK)
	}
}

// dispatch sends msg to the comment actor and writes its reply.
func (s *Server) dispatch(w http.ResponseWriter, msg interface{}, successStatus int) {
	reply, err := s.Engine.Request(msg)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if reply.Err != nil {
		appErr := utils.AsAppError(reply.Err)
		body := CommentErrorResponse{
			ErrorResponse: api.ErrorResponse{Code: appErr.Code, Message: appErr.Message},
			View:          reply.View,
		}
		if appErr.Code == utils.ErrUnauthenticated {
			body.Redirect = s.LoginPath
		}
		status := utils.AppErrorToHTTPStatus(appErr.Code)
		if status >= http.StatusInternalServerError {
			log.Error().Err(appErr).Msg("Comment operation failed")
		}
		api.WriteJSON(w, status, body)
		return
	}

	api.WriteJSON(w, successStatus, CommentResponse{View: reply.View, Comment: reply.Comment})
}
