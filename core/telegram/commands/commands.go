// Package commands describes slash commands and where they are published.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command handler plus its menu metadata. AdminOnly
// commands are published only in administrators' chats; Hidden ones still
// work but never appear in a menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Public reports whether the command belongs in the menu every user sees.
func (c Command) Public() bool {
	return !c.Hidden && !c.AdminOnly
}

// ForAdmins reports whether the command belongs in the administrators' menu.
func (c Command) ForAdmins() bool {
	return !c.Hidden
}

// Answers reports whether name, with or without its slash, is an alias.
func (c Command) Answers(name string) bool {
	name = strings.TrimPrefix(name, "/")
	for _, alias := range c.Aliases {
		if strings.TrimPrefix(alias, "/") == name {
			return true
		}
	}
	return false
}
