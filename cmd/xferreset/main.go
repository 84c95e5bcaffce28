//go:build linux

// Command xferreset keeps a bulk OUT endpoint busy with pipelined transfers
// and resets the device while they are in flight.
//
// It opens the first device matching the vendor and product ID, claims
// interface 0, starts the transfers and resets the device half a second
// later. Traffic runs until interrupted (SIGINT, SIGTERM, SIGQUIT) or until a
// transfer fails.
//
// Exit status is 0 on a clean shutdown, 1 when the device cannot be set up and
// 2 when waiting for completions fails.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/time/rate"

	"github.com/ardnew/xferreset/host"
	"github.com/ardnew/xferreset/host/hal"
	"github.com/ardnew/xferreset/host/hal/linux"
	"github.com/ardnew/xferreset/host/hal/sim"
	"github.com/ardnew/xferreset/pkg"
)

// Device under test: the Linux USB gadget zero / loopback IDs.
const (
	vendorID  = 0x0525
	productID = 0xa4a0
	iface     = 0
)

// Exit codes.
const (
	exitOK       = 0
	exitSetup    = 1
	exitDispatch = 2
)

var (
	verbose = flag.Bool("v", false, "Enable verbose logging")
	jsonOut = flag.Bool("json", false, "Output logs as JSON")
	dryRun  = flag.Bool("sim", false, "Run against an in-process simulated device")
)

func main() {
	flag.Parse()

	if *verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	} else {
		pkg.SetLogLevel(slog.LevelInfo)
	}
	if *jsonOut {
		pkg.Configure(os.Stderr, pkg.LogFormatJSON)
	}

	os.Exit(run())
}

func run() int {
	dev, err := openDevice()
	if err != nil {
		pkg.LogError(pkg.ComponentCmd, "error opening device", "error", err)
		return exitSetup
	}

	reg := prometheus.NewRegistry()
	stats := host.NewStats(reg)

	sigs, stop := host.NotifySignals()
	defer stop()

	sess, err := host.NewSession(dev, host.DefaultConfig(),
		host.WithStats(stats),
		host.WithSignals(sigs))
	if err != nil {
		pkg.LogError(pkg.ComponentCmd, "error starting transfers", "error", err)
		dev.ReleaseInterface()
		dev.Close()
		return exitSetup
	}

	err = sess.Run()
	logTotals(reg)

	switch {
	case errors.Is(err, pkg.ErrDispatch):
		pkg.LogError(pkg.ComponentCmd, "event handling failed", "error", err)
		return exitDispatch
	case err != nil:
		pkg.LogError(pkg.ComponentCmd, "session failed", "error", err)
		return exitSetup
	}

	cause := sess.Shutdown().Cause()
	if errors.Is(cause, pkg.ErrTransferFailed) {
		pkg.LogWarn(pkg.ComponentCmd, "stopped after transfer failure", "cause", cause)
	} else {
		pkg.LogInfo(pkg.ComponentCmd, "stopped", "cause", cause)
	}
	return exitOK
}

func openDevice() (hal.Device, error) {
	if *dryRun {
		pkg.LogInfo(pkg.ComponentCmd, "using simulated device")
		return sim.New(sim.Options{
			AutoComplete: true,
			Rate:         rate.Limit(2000),
			Burst:        host.DefaultSlots,
		}), nil
	}
	return linux.Open(linux.OpenOptions{
		VendorID:  vendorID,
		ProductID: productID,
		Interface: iface,
	})
}

// logTotals reports the lifetime totals, which unlike the traffic counters
// survive the reset.
func logTotals(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		pkg.LogWarn(pkg.ComponentCmd, "error gathering totals", "error", err)
		return
	}

	attrs := make([]any, 0, 2*len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs = append(attrs, metricName(mf, m), m.GetCounter().GetValue())
		}
	}
	pkg.LogInfo(pkg.ComponentCmd, "lifetime totals", attrs...)
}

func metricName(mf *dto.MetricFamily, m *dto.Metric) string {
	name := mf.GetName()
	for _, lp := range m.GetLabel() {
		name += "_" + lp.GetValue()
	}
	return name
}
