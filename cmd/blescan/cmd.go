package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/multierr"

	"github.com/emes30/bluetooth"
	"github.com/emes30/bluetooth/replay"
)

func cmdScan(c *cli.Context) error {
	m, err := filter(c)
	if err != nil {
		return err
	}
	fmt.Printf("Scanning for %s...\n", durationString(c.Duration("d")))
	cancel := coord.RegisterCallback(m, advHandler(c.BoolT("dup")), bluetooth.ScanActive)
	defer cancel()
	return run(c.Duration("d"), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
}

func cmdWait(c *cli.Context) error {
	m, err := filter(c)
	if err != nil {
		return err
	}
	fmt.Printf("Waiting up to %s for %s...\n", c.Duration("tmo"), m)
	return run(0, func(ctx context.Context) error {
		a, err := coord.ProcessAdvertisementsUntil(ctx, m, nil, c.Duration("tmo"))
		if err != nil {
			return err
		}
		printAdv(a)
		return nil
	})
}

func cmdDevices(c *cli.Context) error {
	s := coord.Scanner()
	if err := s.SetServiceUUIDs(c.StringSlice("svc")...); err != nil {
		return err
	}
	fmt.Printf("Discovering for %s...\n", c.Duration("d"))
	return run(0, func(ctx context.Context) error {
		l, err := s.Discover(ctx, c.Duration("d"))
		for _, a := range l {
			printAdv(a)
		}
		fmt.Printf("%d device(s)\n", len(l))
		return err
	})
}

func cmdRecord(c *cli.Context) error {
	m, err := filter(c)
	if err != nil {
		return err
	}
	out := c.String("out")
	var r *replay.Recorder
	fmt.Printf("Recording for %s into %s...\n", durationString(c.Duration("d")), out)
	err = run(c.Duration("d"), func(ctx context.Context) error {
		a, _ := coord.Adapter()
		r = replay.NewRecorder(a)
		cancel := coord.RegisterCallback(m, r.Record, bluetooth.ScanActive)
		defer cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if r == nil {
		return err
	}
	coord.Wait()
	fmt.Printf("%d advertisement(s) recorded\n", r.Len())
	return multierr.Append(err, save(out, r.Session()))
}

func save(name string, s *replay.Session) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "can't create session file")
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return s.Encode(f)
}

func cmdAdapters(c *cli.Context) error {
	l, err := platform.Adapters()
	if err != nil {
		return errors.Wrap(err, "can't list adapters")
	}
	for _, a := range l {
		le, up := "-", "DOWN"
		if a.LE {
			le = "LE"
		}
		if a.Up {
			up = "UP"
		}
		fmt.Printf("%-8s %s %-2s %-4s %s\n", a.ID, a.Address, le, up, a.Name)
	}
	return nil
}

func durationString(d time.Duration) string {
	if d <= 0 {
		return "ever"
	}
	return d.String()
}
