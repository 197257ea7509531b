package main

import (
	"context"
	"flag"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/bletest"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{flgName, flgAddr, flgSvc, flgMfr} {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestFilter(t *testing.T) {
	thermo := bletest.NewAdvertisement("AA:BB:CC:00:00:01", bletest.WithName("Thermo 1"),
		bletest.WithServiceUUIDs("180A"), bletest.WithManufacturerData(0x004C, []byte{1}))
	other := bletest.NewAdvertisement("AA:BB:CC:00:00:02")

	tests := []struct {
		args []string
		kind bluetooth.MatchKind
	}{
		{nil, bluetooth.MatchKindAll},
		{[]string{"-name", "Thermo"}, bluetooth.MatchKindLocalName},
		{[]string{"-addr", "aa:bb:cc:00:00:01"}, bluetooth.MatchKindAddress},
		{[]string{"-svc", "180F", "-svc", "180a"}, bluetooth.MatchKindServiceUUID},
		{[]string{"-mfr", "0x004C"}, bluetooth.MatchKindManufacturerID},
		{[]string{"-m", "76"}, bluetooth.MatchKindManufacturerID},
	}
	for _, tt := range tests {
		m, err := filter(newContext(t, tt.args...))
		require.NoError(t, err, "%v", tt.args)
		assert.Equal(t, tt.kind, m.Kind(), "%v", tt.args)
		assert.True(t, m.Match(thermo), "%v", tt.args)
		if tt.kind != bluetooth.MatchKindAll {
			assert.False(t, m.Match(other), "%v", tt.args)
		}
	}

	_, err := filter(newContext(t, "-mfr", "apple"))
	assert.Equal(t, errInvalidMfr, errors.Cause(err))
}

func TestChkErr(t *testing.T) {
	assert.NoError(t, chkErr(errors.Wrap(context.DeadlineExceeded, "scan")))
	assert.NoError(t, chkErr(context.Canceled))
	assert.NoError(t, chkErr(nil))
	assert.ErrorIs(t, chkErr(errors.Wrap(bluetooth.ErrTimeout, "wait")), bluetooth.ErrTimeout)
}
