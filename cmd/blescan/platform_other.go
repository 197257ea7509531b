//go:build !linux

package main

import (
	"github.com/pkg/errors"

	"github.com/emes30/bluetooth"
)

func newPlatform() (bluetooth.Platform, error) {
	return nil, errors.New("no bluetooth platform on this system, use --replay")
}
