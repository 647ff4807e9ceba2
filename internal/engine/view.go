package engine

import "riff-review/internal/models"

// ViewState is the presentation state of one comment card.
type ViewState string

const (
	Viewing ViewState = "viewing"
	Editing ViewState = "editing"
)

// LikeState is the only record of a card's like status. The icon state and
// the counter are both read from it.
type LikeState struct {
	BaseCount int  `json:"baseCount"`
	BaseLiked bool `json:"baseLiked"`
	Liked     bool `json:"liked"`
}

func newLikeState(count int, liked bool) LikeState {
	return LikeState{BaseCount: count, BaseLiked: liked, Liked: liked}
}

// Count is the counter shown next to the icon: the base count moved by the
// viewer's pending toggle.
func (l LikeState) Count() int {
	n := l.BaseCount
	switch {
	case l.Liked && !l.BaseLiked:
		n++
	case !l.Liked && l.BaseLiked:
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

func (l *LikeState) toggle() { l.Liked = !l.Liked }

// commit makes the toggle the new base once it is stored. count is the
// stored total, which includes other viewers' likes since the list loaded.
func (l *LikeState) commit(count int) {
	l.BaseCount = count
	l.BaseLiked = l.Liked
}

// EditForm is the inline text field that replaces a card's body while editing.
type EditForm struct {
	Draft   string `json:"draft"`
	Focused bool   `json:"focused"`
}

type card struct {
	comment *models.Comment
	state   ViewState
	form    *EditForm
	like    LikeState
}

// newCard renders c for a viewer; liked is whether that viewer likes it.
func newCard(c *models.Comment, liked bool) *card {
	comment := c.Clone()
	comment.LikedBy = nil
	comment.Liked = liked
	return &card{comment: comment, state: Viewing, like: newLikeState(c.Likes, liked)}
}

type container struct {
	id            string
	cards         []*card
	blocked       bool
	editingID     string
	submitEnabled bool
	submitting    bool
	emptyState    bool
	input         string
	scrollTarget  string
}

// idle reports whether the viewer has no edit or submission open, so the
// cards can be re-read without losing anything.
func (ct *container) idle() bool {
	return ct.editingID == "" && !ct.submitting
}

func (ct *container) find(commentID string) *card {
	for _, c := range ct.cards {
		if c.comment.ID == commentID {
			return c
		}
	}
	return nil
}

func (ct *container) remove(commentID string) {
	for i, c := range ct.cards {
		if c.comment.ID == commentID {
			ct.cards = append(ct.cards[:i], ct.cards[i+1:]...)
			break
		}
	}
	if ct.scrollTarget == commentID {
		ct.scrollTarget = ""
	}
	ct.emptyState = len(ct.cards) == 0
}

// CardView is the render-ready state of one card.
type CardView struct {
	Comment  models.Comment `json:"comment"`
	State    ViewState      `json:"state"`
	EditForm *EditForm      `json:"editForm,omitempty"`
	Like     LikeState      `json:"like"`
}

// ContainerView is the render-ready state of a comment list.
type ContainerView struct {
	ID            string     `json:"id"`
	Cards         []CardView `json:"cards"`
	Blocked       bool       `json:"blocked"`
	EditingID     string     `json:"editingId,omitempty"`
	SubmitEnabled bool       `json:"submitEnabled"`
	EmptyState    bool       `json:"emptyState"`
	Input         string     `json:"input"`
	ScrollTarget  string     `json:"scrollTarget,omitempty"`
}

// Card returns the view of one card, or nil.
func (v *ContainerView) Card(commentID string) *CardView {
	for i := range v.Cards {
		if v.Cards[i].Comment.ID == commentID {
			return &v.Cards[i]
		}
	}
	return nil
}

func (ct *container) view() *ContainerView {
	v := &ContainerView{
		ID:            ct.id,
		Cards:         make([]CardView, 0, len(ct.cards)),
		Blocked:       ct.blocked,
		EditingID:     ct.editingID,
		SubmitEnabled: ct.submitEnabled,
		EmptyState:    ct.emptyState,
		Input:         ct.input,
		ScrollTarget:  ct.scrollTarget,
	}
	for _, c := range ct.cards {
		cv := CardView{Comment: *c.comment, State: c.state, Like: c.like}
		cv.Comment.Likes = c.like.Count()
		cv.Comment.Liked = c.like.Liked
		if c.form != nil {
			form := *c.form
			cv.EditForm = &form
		}
		v.Cards = append(v.Cards, cv)
	}
	return v
}
