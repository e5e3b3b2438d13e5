//go:build !windows

package hotkey

import "errors"

func newPlatformBackend(fire func(id int)) (backend, error) {
	return nil, errors.New("global hotkeys not supported on this platform")
}
