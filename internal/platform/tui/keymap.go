package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-2048/internal/core"
)

// gameKeys binds key names, as reported by tea.KeyMsg.String, to actions.
var gameKeys = map[string]core.Action{
	"up": core.ActionUp, "w": core.ActionUp, "k": core.ActionUp,
	"down": core.ActionDown, "s": core.ActionDown, "j": core.ActionDown,
	"left": core.ActionLeft, "a": core.ActionLeft, "h": core.ActionLeft,
	"right": core.ActionRight, "d": core.ActionRight, "l": core.ActionRight,
	"enter": core.ActionConfirm,
	"esc": core.ActionBack, "b": core.ActionBack,
	"p": core.ActionPause, " ": core.ActionPause,
	"r": core.ActionRestart,
	"c": core.ActionContinue,
}

var menuKeys = map[string]MenuAction{
	"up": MenuActionUp, "w": MenuActionUp, "k": MenuActionUp,
	"down": MenuActionDown, "s": MenuActionDown, "j": MenuActionDown,
	"enter": MenuActionSelect, " ": MenuActionSelect,
	"esc": MenuActionBack, "b": MenuActionBack,
	"tab": MenuActionScoreboard,
}

func isQuitKey(k string) bool {
	return k == "q" || k == "ctrl+c"
}

// KeyMapper translates Bubble Tea key messages to game and menu actions.
type KeyMapper struct{}

func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey returns the action bound to msg, or ActionNone. isQuit is set for
// the quit keys, which every screen handles itself.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	k := msg.String()
	if isQuitKey(k) {
		return core.ActionQuit, true
	}
	if a, ok := gameKeys[k]; ok {
		return a, false
	}
	return core.ActionNone, false
}

// MapKeyToFrame records msg's action in frame and reports whether msg was
// a quit request. Quit is never recorded.
func (km *KeyMapper) MapKeyToFrame(msg tea.KeyMsg, frame *core.InputFrame) bool {
	action, isQuit := km.MapKey(msg)
	if action != core.ActionNone && !isQuit {
		frame.Set(action)
	}
	return isQuit
}

// MenuAction is a navigation step in the board picker.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionScoreboard
	MenuActionQuit
)

func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	k := msg.String()
	if isQuitKey(k) {
		return MenuActionQuit
	}
	return menuKeys[k]
}
