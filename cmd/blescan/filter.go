package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/emes30/bluetooth"
)

// filter builds the matcher of the first filter flag set.
func filter(c *cli.Context) (bluetooth.Matcher, error) {
	if s := c.String("name"); s != "" {
		return bluetooth.MatchLocalName(s), nil
	}
	if s := c.String("addr"); s != "" {
		return bluetooth.MatchAddress(s), nil
	}
	if l := c.StringSlice("svc"); len(l) != 0 {
		return bluetooth.MatchServiceUUID(l...), nil
	}
	if s := c.String("mfr"); s != "" {
		id, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return bluetooth.Matcher{}, errors.Wrapf(errInvalidMfr, "%q", s)
		}
		return bluetooth.MatchManufacturerID(uint16(id)), nil
	}
	return bluetooth.MatchAll(), nil
}
