package models

// MenuAction is the tag carried by a comment card's overflow menu control.
type MenuAction string

const (
	MenuEdit   MenuAction = "edit"
	MenuDelete MenuAction = "delete"
	MenuReport MenuAction = "report"
)

// Valid reports whether the action is one the card menu understands.
func (a MenuAction) Valid() bool {
	switch a {
	case MenuEdit, MenuDelete, MenuReport:
		return true
	}
	return false
}
