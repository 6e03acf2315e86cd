package ui

import (
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ActionID uniquely identifies a keyboard action.
type ActionID string

// Standard actions.
const (
	ActionPanel     ActionID = "panel"
	ActionSearch    ActionID = "search"
	ActionPlay      ActionID = "play"
	ActionNext      ActionID = "next"
	ActionPrev      ActionID = "prev"
	ActionDelete    ActionID = "delete"
	ActionAuto      ActionID = "auto"
	ActionHUD       ActionID = "hud"
	ActionBloom     ActionID = "bloom"
	ActionResetView ActionID = "reset_view"
)

// Binding ties a key to an action.
type Binding struct {
	ID       ActionID
	Name     string // Display name
	Key      int32  // Keyboard key
	KeyLabel string // Key label for the legend
}

// Keymap holds the key bindings in display order.
type Keymap struct {
	bindings []Binding
	byID     map[ActionID]int
}

// NewKeymap creates a keymap with the default bindings.
func NewKeymap() *Keymap {
	k := &Keymap{byID: make(map[ActionID]int)}
	k.Register(Binding{ID: ActionPanel, Name: "panel", Key: rl.KeyTab, KeyLabel: "Tab"})
	k.Register(Binding{ID: ActionSearch, Name: "music", Key: rl.KeyF2, KeyLabel: "F2"})
	k.Register(Binding{ID: ActionPlay, Name: "play/pause", Key: rl.KeySpace, KeyLabel: "Space"})
	k.Register(Binding{ID: ActionPrev, Name: "prev", Key: rl.KeyLeft, KeyLabel: "Left"})
	k.Register(Binding{ID: ActionNext, Name: "next", Key: rl.KeyRight, KeyLabel: "Right"})
	k.Register(Binding{ID: ActionDelete, Name: "delete", Key: rl.KeyDelete, KeyLabel: "Del"})
	k.Register(Binding{ID: ActionAuto, Name: "auto", Key: rl.KeyA, KeyLabel: "A"})
	k.Register(Binding{ID: ActionHUD, Name: "hud", Key: rl.KeyH, KeyLabel: "H"})
	k.Register(Binding{ID: ActionBloom, Name: "glow", Key: rl.KeyG, KeyLabel: "G"})
	k.Register(Binding{ID: ActionResetView, Name: "view", Key: rl.KeyR, KeyLabel: "R"})
	return k
}

// Register adds or replaces a binding.
func (k *Keymap) Register(b Binding) {
	if i, ok := k.byID[b.ID]; ok {
		k.bindings[i] = b
		return
	}
	k.byID[b.ID] = len(k.bindings)
	k.bindings = append(k.bindings, b)
}

// Get returns the binding for id.
func (k *Keymap) Get(id ActionID) (Binding, bool) {
	i, ok := k.byID[id]
	if !ok {
		return Binding{}, false
	}
	return k.bindings[i], true
}

// Pressed returns the actions whose key reports pressed, in display order.
func (k *Keymap) Pressed(isPressed func(key int32) bool) []ActionID {
	var out []ActionID
	for _, b := range k.bindings {
		if isPressed(b.Key) {
			out = append(out, b.ID)
		}
	}
	return out
}

// Legend formats the bindings as "[Key] name | ...".
func (k *Keymap) Legend() string {
	parts := make([]string, len(k.bindings))
	for i, b := range k.bindings {
		parts[i] = "[" + b.KeyLabel + "] " + b.Name
	}
	return strings.Join(parts, " | ")
}
