package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/replay"
)

var logger = log.New("blescan")

var (
	cfg      *bluetooth.Config
	platform bluetooth.Platform
	coord    *bluetooth.Coordinator
	registry *prometheus.Registry
)

func main() {
	app := cli.NewApp()

	app.Name = "blescan"
	app.Usage = "Share one BLE scan between advertisement consumers"
	app.Version = "0.1.0"
	app.Action = cli.ShowAppHelp
	app.Flags = []cli.Flag{flgConfig, flgAdapter, flgReplay, flgLogLevel, flgMetricsAddr}

	app.Commands = []cli.Command{
		{
			Name:    "scan",
			Aliases: []string{"s"},
			Usage:   "Print advertisements matching the filter",
			Action:  cmdScan,
			Flags:   []cli.Flag{flgDuration, flgName, flgAddr, flgSvc, flgMfr, flgAllowDup},
		},
		{
			Name:    "wait",
			Aliases: []string{"w"},
			Usage:   "Wait for the first advertisement matching the filter",
			Action:  cmdWait,
			Flags:   []cli.Flag{flgTimeout, flgName, flgAddr, flgSvc, flgMfr},
		},
		{
			Name:    "devices",
			Aliases: []string{"d"},
			Usage:   "Scan for a while, then list the discovered devices",
			Action:  cmdDevices,
			Flags:   []cli.Flag{cli.DurationFlag{Name: "duration, d", Value: 5 * time.Second, Usage: "duration"}, flgSvc},
		},
		{
			Name:    "record",
			Aliases: []string{"r"},
			Usage:   "Record advertisements into a replay session",
			Action:  cmdRecord,
			Flags:   []cli.Flag{flgDuration, flgOut, flgName, flgAddr, flgSvc, flgMfr},
		},
		{
			Name:    "adapters",
			Aliases: []string{"a"},
			Usage:   "List the bluetooth adapters",
			Action:  cmdAdapters,
		},
	}

	app.Before = setup
	app.After = teardown
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "blescan: %v\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	var err error
	if cfg, err = bluetooth.LoadConfig(c.GlobalString("config")); err != nil {
		return errors.Wrap(err, "can't load config")
	}
	if s := c.GlobalString("adapter"); s != "" {
		cfg.Adapter = s
	}
	if s := c.GlobalString("log-level"); s != "" {
		cfg.LogLevel = s
	}
	if s := c.GlobalString("metrics-addr"); s != "" {
		cfg.MetricsAddr = s
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	bluetooth.SetLogLevel(cfg.Level())
	logger.SetLevel(cfg.Level())

	if name := c.GlobalString("replay"); name != "" {
		s, err := replay.Load(name)
		if err != nil {
			return errors.Wrap(err, "can't load replay session")
		}
		platform = replay.NewPlatform(s, nil)
	} else if platform, err = newPlatform(); err != nil {
		return errors.Wrap(err, "can't create platform")
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	registry = prometheus.NewRegistry()
	opts = append(opts, bluetooth.OptRegisterer(registry), bluetooth.OptFlowStarter(bluetooth.FlowStarterFunc(flowHandler)))
	if coord, err = bluetooth.New(platform, opts...); err != nil {
		return errors.Wrap(err, "can't create coordinator")
	}
	return errors.Wrap(coord.Setup(), "can't set up coordinator")
}

func teardown(c *cli.Context) error {
	if coord == nil {
		return nil
	}
	return coord.Close()
}
