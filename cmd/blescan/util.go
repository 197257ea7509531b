package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var errInvalidMfr = errors.New("invalid manufacturer identifier")

// run starts scanning, serves metrics if configured, and calls fn until it
// returns, d elapses or the process is interrupted. A zero d never elapses.
func run(d time.Duration, fn func(ctx context.Context) error) error {
	var ctx context.Context
	var cancel context.CancelFunc
	if d > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()
	ctx = withSigHandler(ctx, cancel)

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	if addr := cfg.MetricsAddr; addr != "" {
		g.Go(func() error { return serveMetrics(ctx, done, addr) })
	}
	g.Go(func() error {
		defer close(done)
		if err := coord.Start(ctx, "", ""); err != nil {
			return errors.Wrap(err, "can't start scanning")
		}
		return fn(ctx)
	})
	err := chkErr(g.Wait())
	return multierr.Append(err, coord.Stop())
}

func withSigHandler(ctx context.Context, cancel func()) context.Context {
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		select {
		case <-ch:
			fmt.Printf("\n(Interrupted)\n")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func serveMetrics(ctx context.Context, done <-chan struct{}, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "can't serve metrics")
	}
	logger.Info("serving metrics", "addr", ln.Addr().String())
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		srv.Close()
	}()
	if err := srv.Serve(ln); err != http.ErrServerClosed {
		return errors.Wrap(err, "metrics server")
	}
	return nil
}

func chkErr(err error) error {
	switch errors.Cause(err) {
	case context.DeadlineExceeded:
		// Specified duration passed, which is the expected case.
		return nil
	case context.Canceled:
		fmt.Printf("\n(Canceled)\n")
		return nil
	}
	return err
}
