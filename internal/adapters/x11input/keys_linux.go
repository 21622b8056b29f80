//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"x11clicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// KeyDisplay is the hotkey watcher's X11 connection.
type KeyDisplay struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
}

func OpenKeyDisplay() (*KeyDisplay, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	keybind.Initialize(xu)

	return &KeyDisplay{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
	}, nil
}

// ResolveKeycode maps a keysym name such as "F6" or "q" to the lowest
// keycode that produces it on the current keyboard mapping.
//
// A blank name is ErrUnknownKeysym. Any other name without a keycode is
// ErrNoKeycode, whether keybind does not know the name or the keyboard
// has no key for it: StrToKeycodes reports both as an empty slice.
func (d *KeyDisplay) ResolveKeycode(keysym string) (autoclicker.Keycode, error) {
	name := strings.TrimSpace(keysym)
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", autoclicker.ErrUnknownKeysym)
	}

	keycodes := keybind.StrToKeycodes(d.xu, name)
	if len(keycodes) == 0 {
		return 0, fmt.Errorf("%w %q", autoclicker.ErrNoKeycode, name)
	}
	sort.Slice(keycodes, func(i, j int) bool { return keycodes[i] < keycodes[j] })
	return autoclicker.Keycode(keycodes[0]), nil
}

func (d *KeyDisplay) GrabKey(code autoclicker.Keycode, mods autoclicker.ModMask) error {
	return xproto.GrabKeyChecked(
		d.conn,
		true,
		d.rootWin,
		uint16(mods),
		xproto.Keycode(code),
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Check()
}

func (d *KeyDisplay) UngrabKey(code autoclicker.Keycode, mods autoclicker.ModMask) error {
	return xproto.UngrabKeyChecked(d.conn, xproto.Keycode(code), d.rootWin, uint16(mods)).Check()
}

func (d *KeyDisplay) PollEvent() (autoclicker.KeyEvent, bool, error) {
	event, xerr := d.conn.PollForEvent()
	if xerr != nil {
		return autoclicker.KeyEvent{}, true, xerr
	}
	if event == nil {
		return autoclicker.KeyEvent{}, false, nil
	}

	switch ev := event.(type) {
	case xproto.KeyPressEvent:
		return autoclicker.KeyEvent{Keycode: autoclicker.Keycode(ev.Detail), Press: true}, true, nil
	case xproto.KeyReleaseEvent:
		return autoclicker.KeyEvent{Keycode: autoclicker.Keycode(ev.Detail)}, true, nil
	default:
		return autoclicker.KeyEvent{}, true, nil
	}
}

func (d *KeyDisplay) Flush() error {
	d.conn.Sync()
	return nil
}

func (d *KeyDisplay) Close() error {
	d.conn.Close()
	return nil
}

// CaptureNextKeysym grabs the keyboard on a short-lived connection and
// returns the keysym name of the next key pressed, for binding the toggle
// shortcut by example.
func CaptureNextKeysym(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return "", err
	}
	conn := xu.Conn()
	root := xu.RootWin()
	keybind.Initialize(xu)

	defer conn.Close()
	defer xproto.UngrabKeyboard(conn, xproto.TimeCurrentTime)

	if reply, err := xproto.GrabKeyboard(
		conn,
		false,
		root,
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply(); err != nil {
		return "", err
	} else if reply.Status != xproto.GrabStatusSuccess {
		return "", fmt.Errorf("failed to grab keyboard (status=%d)", reply.Status)
	}

	deadline := time.Now().Add(timeout)
	for {
		event, xerr := conn.PollForEvent()
		if xerr != nil {
			return "", xerr
		}
		if event == nil {
			if time.Now().After(deadline) {
				return "", fmt.Errorf("timed out waiting for key input")
			}
			time.Sleep(2 * time.Millisecond)
			continue
		}

		if ev, ok := event.(xproto.KeyPressEvent); ok {
			// Lookup without modifiers so Shift does not turn "a" into "A".
			if name := keybind.LookupString(xu, 0, ev.Detail); name != "" {
				return name, nil
			}
		}
	}
}
