package engine

import (
	"context"
	"time"

	"riff-review/internal/database"
	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/google/uuid"
)

// Notifier shows a notice to the viewer session named in it.
type Notifier interface {
	Notify(ctx context.Context, notice models.Notice)
}

// Navigator sends one viewer session somewhere else, e.g. the login entry
// point.
type Navigator interface {
	RedirectToLogin(ctx context.Context, sessionID, containerID string)
}

// Confirmer asks the viewer a question and waits for the answer.
// ok is false when the viewer dismissed the dialog.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (ok bool, err error)
	Prompt(ctx context.Context, message string) (answer string, ok bool, err error)
}

// LikeUpdater is the backing call made after a like is toggled on screen.
type LikeUpdater interface {
	UpdateLike(ctx context.Context, commentID, userID string, liked bool) error
}

// Deps are the collaborators a CommentController is built from.
// Only Repository is required.
type Deps struct {
	Repository  database.CommentRepository
	Notifier    Notifier
	Navigator   Navigator
	Confirmer   Confirmer
	LikeUpdater LikeUpdater
	Metrics     *utils.MetricsCollector

	// NewID generates identifiers for submitted comments.
	NewID func() (string, error)
	Now   func() time.Time
	// Author is stamped on every submitted comment.
	Author models.Author
	// SessionIdleTimeout drops the UI state of viewers that stopped
	// sending requests, releasing any edit they left open.
	SessionIdleTimeout time.Duration
}

// DefaultAuthor is the placeholder identity used for new comments.
var DefaultAuthor = models.Author{
	UserID:      "guest",
	DisplayName: "Guest",
	AvatarURL:   "/images/avatars/default.png",
}

func (d *Deps) applyDefaults() {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Navigator == nil {
		d.Navigator = nopNavigator{}
	}
	if d.Confirmer == nil {
		d.Confirmer = DismissDialog{}
	}
	if d.LikeUpdater == nil {
		d.LikeUpdater = SimulatedLikeUpdater{}
	}
	if d.NewID == nil {
		d.NewID = func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Author.UserID == "" {
		d.Author = DefaultAuthor
	}
	if d.SessionIdleTimeout <= 0 {
		d.SessionIdleTimeout = 30 * time.Minute
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notice) {}

type nopNavigator struct{}

func (nopNavigator) RedirectToLogin(context.Context, string, string) {}

// SimulatedLikeUpdater accepts every like update without calling anything.
type SimulatedLikeUpdater struct{}

func (SimulatedLikeUpdater) UpdateLike(context.Context, string, string, bool) error { return nil }
