package actors

import (
	stdctx "context"
	"fmt"
	"time"

	"riff-review/internal/engine"
	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
)

// Message types for CommentActor. Viewer names the session the operation
// acts for; the reply carries that viewer's copy of the container.
type (
	LoadContainerMsg struct {
		Viewer      engine.Viewer `json:"-"`
		ContainerID string        `json:"containerId"`
	}

	EnterEditMsg struct {
		Viewer      engine.Viewer `json:"-"`
		ContainerID string        `json:"containerId"`
		CommentID   string        `json:"commentId"`
	}

	ConfirmEditMsg struct {
		Viewer      engine.Viewer `json:"-"`
		ContainerID string        `json:"containerId"`
		CommentID   string        `json:"commentId"`
		Content     string        `json:"content"`
	}

	CancelEditMsg struct {
		Viewer      engine.Viewer `json:"-"`
		ContainerID string        `json:"containerId"`
		CommentID   string        `json:"commentId"`
	}

	MenuActionMsg struct {
		Viewer      engine.Viewer     `json:"-"`
		ContainerID string            `json:"containerId"`
		CommentID   string            `json:"commentId"`
		Action      models.MenuAction `json:"action"`
		// Dialog answers the delete confirmation and report prompt.
		Dialog engine.Confirmer `json:"-"`
	}

	ToggleLikeMsg struct {
		Viewer      engine.Viewer `json:"-"`
		ContainerID string        `json:"containerId"`
		CommentID   string        `json:"commentId"`
	}

	SubmitCommentMsg struct {
		Viewer      engine.Viewer `json:"-"`
		ContainerID string        `json:"containerId"`
		Content     string        `json:"content"`
	}
)

// Reply is the response to every CommentActor message. View is the viewer's
// container after the operation, set whenever the container could be loaded,
// including when Err is set.
type Reply struct {
	View    *engine.ContainerView
	Comment *models.Comment // the new comment, for SubmitCommentMsg
	Err     error
}

// CommentActor owns the comment controller and serializes every operation on
// it through its mailbox.
type CommentActor struct {
	controller *engine.CommentController
	opTimeout  time.Duration
}

func NewCommentActor(deps engine.Deps, opTimeout time.Duration) actor.Actor {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &CommentActor{
		controller: engine.NewCommentController(deps),
		opTimeout:  opTimeout,
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Info().Str("pid", context.Self().String()).Msg("CommentActor started")

	case *actor.Stopping:
		log.Info().Msg("CommentActor stopping")

	case *actor.Stopped, *actor.Restarting:

	case *LoadContainerMsg:
		a.respond(context, msg.Viewer, msg.ContainerID, func(ctx stdctx.Context) error {
			_, err := a.controller.LoadContainer(ctx, msg.Viewer, msg.ContainerID)
			return err
		})

	case *EnterEditMsg:
		a.respond(context, msg.Viewer, msg.ContainerID, func(ctx stdctx.Context) error {
			return a.controller.EnterEditMode(ctx, msg.Viewer, msg.ContainerID, msg.CommentID)
		})

	case *ConfirmEditMsg:
		a.respond(context, msg.Viewer, msg.ContainerID, func(ctx stdctx.Context) error {
			return a.controller.ConfirmEdit(ctx, msg.Viewer, msg.ContainerID, msg.CommentID, msg.Content)
		})

	case *CancelEditMsg:
		a.respond(context, msg.Viewer, msg.ContainerID, func(ctx stdctx.Context) error {
			return a.controller.CancelEdit(ctx, msg.Viewer, msg.ContainerID, msg.CommentID)
		})

	case *MenuActionMsg:
		a.respond(context, msg.Viewer, msg.ContainerID, func(ctx stdctx.Context) error {
			return a.controller.DispatchMenuAction(ctx, msg.Viewer, msg.ContainerID, msg.CommentID, msg.Action, msg.Dialog)
		})

	case *ToggleLikeMsg:
		a.respond(context, msg.Viewer, msg.ContainerID, func(ctx stdctx.Context) error {
			return a.controller.ToggleLike(ctx, msg.Viewer, msg.ContainerID, msg.CommentID)
		})

	case *SubmitCommentMsg:
		a.handleSubmit(context, msg)

	default:
		log.Warn().Str("type", fmt.Sprintf("%T", msg)).Msg("CommentActor: unknown message type")
		context.Respond(&Reply{Err: utils.NewAppError(utils.ErrMessageRejected, "unknown message type", nil)})
	}
}

func (a *CommentActor) respond(context actor.Context, viewer engine.Viewer, containerID string, op func(stdctx.Context) error) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.opTimeout)
	defer cancel()

	err := op(ctx)
	context.Respond(&Reply{View: a.controller.Snapshot(viewer, containerID), Err: err})
}

func (a *CommentActor) handleSubmit(context actor.Context, msg *SubmitCommentMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.opTimeout)
	defer cancel()

	comment, err := a.controller.SubmitNewComment(ctx, msg.Viewer, msg.ContainerID, msg.Content)
	context.Respond(&Reply{
		View:    a.controller.Snapshot(msg.Viewer, msg.ContainerID),
		Comment: comment,
		Err:     err,
	})
}
