package x11input

import "x11clicker/internal/core/autoclicker"

// Displays returns openers for the two independent X11 connections the
// clicker service needs.
func Displays() autoclicker.Displays {
	return autoclicker.Displays{
		OpenKeys: func() (autoclicker.KeyDisplay, error) {
			d, err := OpenKeyDisplay()
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		OpenPointer: func() (autoclicker.PointerDisplay, error) {
			d, err := OpenPointerDisplay()
			if err != nil {
				return nil, err
			}
			return d, nil
		},
	}
}

var (
	_ autoclicker.KeyDisplay     = (*KeyDisplay)(nil)
	_ autoclicker.PointerDisplay = (*PointerDisplay)(nil)
)
