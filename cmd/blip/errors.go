package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// FormatUserError turns an internal error chain into a single actionable
// message for stderr.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, os.ErrPermission),
		strings.Contains(err.Error(), "operation not permitted"):
		return fmt.Sprintf("%v\nHint: raw HCI access requires elevated privileges (run as root or grant CAP_NET_ADMIN)", err)
	case strings.Contains(err.Error(), "no devices available"),
		strings.Contains(err.Error(), "can't init hci"):
		return fmt.Sprintf("%v\nHint: no usable Bluetooth adapter found; check `hciconfig` and that the adapter is up", err)
	default:
		return err.Error()
	}
}
