//go:build windows

package probe

import (
	"errors"

	"golang.org/x/sys/windows"
)

func isAddrInUse(err error) bool {
	return errors.Is(err, windows.WSAEADDRINUSE)
}

func isPermission(err error) bool {
	return errors.Is(err, windows.WSAEACCES)
}
