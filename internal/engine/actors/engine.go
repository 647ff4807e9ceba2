package actors

import (
	"fmt"
	"time"

	"riff-review/internal/engine"
	"riff-review/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
)

// Engine spawns the comment actor and is the entry point for requests to it.
type Engine struct {
	system         *actor.ActorSystem
	commentActor   *actor.PID
	requestTimeout time.Duration
}

// NewEngine spawns a CommentActor built from deps on system. Requests wait up
// to requestTimeout for a reply; the actor gives each operation the same
// budget.
func NewEngine(system *actor.ActorSystem, deps engine.Deps, requestTimeout time.Duration) *Engine {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(deps, requestTimeout)
	})
	pid := system.Root.Spawn(props)
	log.Info().Str("pid", pid.String()).Msg("Engine started comment actor")

	return &Engine{
		system:         system,
		commentActor:   pid,
		requestTimeout: requestTimeout,
	}
}

func (e *Engine) CommentActorPID() *actor.PID {
	return e.commentActor
}

// Request sends msg to the comment actor and waits for its reply. The
// returned error covers delivery only; the operation's own outcome is in
// Reply.Err.
func (e *Engine) Request(msg interface{}) (*Reply, error) {
	// The actor's own budget expires first, so its reply still fits.
	future := e.system.Root.RequestFuture(e.commentActor, msg, e.requestTimeout+time.Second)
	result, err := future.Result()
	if err != nil {
		log.Error().Err(err).Str("type", fmt.Sprintf("%T", msg)).Msg("Comment actor request failed")
		return nil, utils.NewActorTimeoutError("CommentActor", err)
	}

	reply, ok := result.(*Reply)
	if !ok {
		return nil, utils.NewAppError(utils.ErrMessageRejected, fmt.Sprintf("unexpected reply type %T", result), nil)
	}
	return reply, nil
}

// Shutdown stops the comment actor and waits for it to finish.
func (e *Engine) Shutdown() {
	if err := e.system.Root.StopFuture(e.commentActor).Wait(); err != nil {
		log.Warn().Err(err).Msg("Comment actor did not stop cleanly")
	}
}
