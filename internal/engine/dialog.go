package engine

import "context"

// AnsweredDialog is a Confirmer whose answers were collected up front, for
// callers such as HTTP requests that carry the viewer's answer in the body.
// A nil field means the viewer dismissed that dialog.
type AnsweredDialog struct {
	Confirmed *bool
	Reason    *string
}

func (d AnsweredDialog) Confirm(context.Context, string) (bool, error) {
	if d.Confirmed == nil {
		return false, nil
	}
	return *d.Confirmed, nil
}

func (d AnsweredDialog) Prompt(context.Context, string) (string, bool, error) {
	if d.Reason == nil {
		return "", false, nil
	}
	return *d.Reason, true, nil
}

// DismissDialog answers every question with "cancel".
type DismissDialog struct{}

func (DismissDialog) Confirm(context.Context, string) (bool, error) { return false, nil }

func (DismissDialog) Prompt(context.Context, string) (string, bool, error) { return "", false, nil }
