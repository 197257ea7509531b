// Package linux provides the bluetooth.Platform of Linux hosts: adapters
// are enumerated through HCI ioctls and scanned through gatt.
package linux

import "github.com/mgutz/logxi/v1"

var logger = log.New("linux")
