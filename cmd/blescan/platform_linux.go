package main

import (
	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/linux"
)

func newPlatform() (bluetooth.Platform, error) {
	return linux.NewPlatform(), nil
}
