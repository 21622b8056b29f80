//go:build linux

package x11input

import (
	"fmt"

	"x11clicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
)

// PointerDisplay is the clicker's X11 connection. Button events are
// synthesized through the XTEST extension at the current pointer position.
type PointerDisplay struct {
	conn    *xgb.Conn
	rootWin xproto.Window
}

func OpenPointerDisplay() (*PointerDisplay, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension unavailable: %w", err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &PointerDisplay{
		conn:    conn,
		rootWin: screen.Root,
	}, nil
}

func (d *PointerDisplay) ButtonDown(button autoclicker.Button) error {
	return d.fakeButton(xproto.ButtonPress, button)
}

func (d *PointerDisplay) ButtonUp(button autoclicker.Button) error {
	return d.fakeButton(xproto.ButtonRelease, button)
}

func (d *PointerDisplay) fakeButton(eventType byte, button autoclicker.Button) error {
	return xtest.FakeInputChecked(
		d.conn,
		eventType,
		byte(button),
		xproto.TimeCurrentTime,
		d.rootWin,
		0,
		0,
		0,
	).Check()
}

func (d *PointerDisplay) Flush() error {
	d.conn.Sync()
	return nil
}

func (d *PointerDisplay) Close() error {
	d.conn.Close()
	return nil
}
