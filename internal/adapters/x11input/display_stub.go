//go:build !linux

package x11input

import (
	"fmt"
	"time"

	"x11clicker/internal/core/autoclicker"
)

var errUnsupported = fmt.Errorf("%w: X11 input is only available on Linux", autoclicker.ErrDisplayUnavailable)

type KeyDisplay struct{}

func OpenKeyDisplay() (*KeyDisplay, error) {
	return nil, errUnsupported
}

func (d *KeyDisplay) ResolveKeycode(string) (autoclicker.Keycode, error) {
	return 0, errUnsupported
}

func (d *KeyDisplay) GrabKey(autoclicker.Keycode, autoclicker.ModMask) error {
	return errUnsupported
}

func (d *KeyDisplay) UngrabKey(autoclicker.Keycode, autoclicker.ModMask) error {
	return errUnsupported
}

func (d *KeyDisplay) PollEvent() (autoclicker.KeyEvent, bool, error) {
	return autoclicker.KeyEvent{}, false, errUnsupported
}

func (d *KeyDisplay) Flush() error { return nil }

func (d *KeyDisplay) Close() error { return nil }

type PointerDisplay struct{}

func OpenPointerDisplay() (*PointerDisplay, error) {
	return nil, errUnsupported
}

func (d *PointerDisplay) ButtonDown(autoclicker.Button) error { return errUnsupported }

func (d *PointerDisplay) ButtonUp(autoclicker.Button) error { return errUnsupported }

func (d *PointerDisplay) Flush() error { return nil }

func (d *PointerDisplay) Close() error { return nil }

func CaptureNextKeysym(time.Duration) (string, error) {
	return "", errUnsupported
}
