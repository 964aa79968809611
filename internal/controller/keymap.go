package controller

import (
	"fmt"

	"github.com/PAMF2/irrad-IA/internal/config"
	"github.com/PAMF2/irrad-IA/internal/display"
)

// Action is what a key press asks the controller to do.
type Action int

const (
	ActionNone Action = iota
	ActionNext
	ActionPrevious
	ActionQuit
	ActionSnapshot
)

func (a Action) String() string {
	switch a {
	case ActionNext:
		return "next"
	case ActionPrevious:
		return "previous"
	case ActionQuit:
		return "quit"
	case ActionSnapshot:
		return "snapshot"
	default:
		return "none"
	}
}

// Keymap maps 8-bit key codes to actions.
type Keymap map[int]Action

// Lookup returns the action bound to key, or ActionNone.
func (k Keymap) Lookup(key int) Action {
	return k[key&0xFF]
}

// DefaultKeymap binds n/p to next/previous, q and ESC to quit and s to
// snapshot.
func DefaultKeymap() Keymap {
	return Keymap{
		'n':            ActionNext,
		'p':            ActionPrevious,
		'q':            ActionQuit,
		display.KeyEsc: ActionQuit,
		's':            ActionSnapshot,
	}
}

// NewKeymap builds a keymap from configured key names.
func NewKeymap(cfg config.KeysConfig) (Keymap, error) {
	km := make(Keymap)
	bind := func(action Action, names []string) error {
		for _, name := range names {
			code, err := display.ParseKey(name)
			if err != nil {
				return fmt.Errorf("keys.%s: %w", action, err)
			}
			if prev, ok := km[code]; ok && prev != action {
				return fmt.Errorf("keys.%s: key %q already bound to %s", action, name, prev)
			}
			km[code] = action
		}
		return nil
	}

	for _, b := range []struct {
		action Action
		names  []string
	}{
		{ActionNext, cfg.Next},
		{ActionPrevious, cfg.Previous},
		{ActionQuit, cfg.Quit},
		{ActionSnapshot, cfg.Snapshot},
	} {
		if err := bind(b.action, b.names); err != nil {
			return nil, err
		}
	}
	return km, nil
}
