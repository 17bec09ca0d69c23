package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tsync/internal/models"
)

var (
	_ list.Item = userItem{}
)

// userItem wraps [models.SyncUser] to implement [list.Item].
type userItem struct {
	user *models.SyncUser
}

func (i userItem) FilterValue() string { return i.user.Name }
func (i userItem) Title() string       { return i.user.Name }
func (i userItem) Description() string {
	desc := "history"
	if i.user.SyncCollection {
		desc = "history + collection"
	}
	if !i.user.Authenticated() {
		desc += " • not authenticated"
	}
	return desc
}
