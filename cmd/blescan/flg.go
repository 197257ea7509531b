package main

import (
	"time"

	"github.com/urfave/cli"
)

var (
	flgConfig      = cli.StringFlag{Name: "config, c", Value: "blescan.yaml", Usage: "Configuration file"}
	flgAdapter     = cli.StringFlag{Name: "adapter", Usage: "Adapter id or address (overrides the config)"}
	flgReplay      = cli.StringFlag{Name: "replay", Usage: "Play a recorded session instead of scanning"}
	flgLogLevel    = cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn, error or off"}
	flgMetricsAddr = cli.StringFlag{Name: "metrics-addr", Usage: "Serve prometheus metrics on this address"}

	flgDuration = cli.DurationFlag{Name: "duration, d", Value: time.Second * 10, Usage: "Duration, 0 runs until interrupted"}
	flgTimeout  = cli.DurationFlag{Name: "tmo, t", Value: time.Second * 30, Usage: "Timeout for the command"}
	flgName     = cli.StringFlag{Name: "name, n", Usage: "Local name prefix of remote device"}
	flgAddr     = cli.StringFlag{Name: "addr, a", Usage: "Address of remote device"}
	flgSvc      = cli.StringSliceFlag{Name: "svc, s", Usage: "Service UUID of remote device"}
	flgMfr      = cli.StringFlag{Name: "mfr, m", Usage: "Manufacturer identifier of remote device"}
	flgAllowDup = cli.BoolTFlag{Name: "dup", Usage: "Print every advertisement, not only new devices"}
	flgOut      = cli.StringFlag{Name: "out, o", Value: "session.yaml", Usage: "Session file to write"}
)
