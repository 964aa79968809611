// Package display defines the surface annotated frames are shown on and the
// input events it delivers.
package display

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode/utf8"
)

// EventKind distinguishes key presses from pointer clicks.
type EventKind int

const (
	KeyEvent EventKind = iota + 1
	PointerEvent
)

func (k EventKind) String() string {
	switch k {
	case KeyEvent:
		return "key"
	case PointerEvent:
		return "pointer"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one user input. Key is an 8-bit key code (ESC is 27); X and Y are
// frame pixel coordinates of a primary-button press.
type Event struct {
	Kind EventKind
	Key  int
	X    int
	Y    int
}

// Surface shows frames and delivers input.
type Surface interface {
	Show(img image.Image) error
	// PollEvent waits at most timeout for one event.
	PollEvent(ctx context.Context, timeout time.Duration) (Event, bool)
	Close() error
}

// SelectionReporter is implemented by surfaces that show the selection
// readout outside the frame.
type SelectionReporter interface {
	ReportSelection(description string)
}

// Key codes for the named keys.
const (
	KeyTab   = 9
	KeyEnter = 13
	KeyEsc   = 27
	KeySpace = 32
)

var namedKeys = map[string]int{
	"tab":   KeyTab,
	"enter": KeyEnter,
	"esc":   KeyEsc,
	"space": KeySpace,
}

// ParseKey converts a key name (a single character or one of esc, enter,
// space, tab) into its key code.
func ParseKey(name string) (int, error) {
	if code, ok := namedKeys[strings.ToLower(name)]; ok {
		return code, nil
	}
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || size != len(name) || r == utf8.RuneError {
		return 0, fmt.Errorf("unsupported key %q", name)
	}
	if r > 0xFF {
		return 0, fmt.Errorf("key %q is outside the 8-bit key range", name)
	}
	return int(r), nil
}

// KeyName is the inverse of ParseKey for logging.
func KeyName(code int) string {
	for name, c := range namedKeys {
		if c == code {
			return name
		}
	}
	if code > 32 && code < 127 {
		return string(rune(code))
	}
	return fmt.Sprintf("0x%02x", code)
}
