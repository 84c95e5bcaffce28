// Package host implements a pipelined bulk-transfer engine that checks how a
// USB device recovers from a reset taken under load.
//
// It is platform-agnostic and drives the device through the [hal.Device]
// interface defined in the github.com/ardnew/xferreset/host/hal package.
//
// # Architecture
//
// A [Session] wires together four components that share one [Shutdown] flag
// and one set of [Counters]:
//
//   - [Pool] keeps a fixed number of transfers in flight; each completion
//     counts its bytes and resubmits the same transfer
//   - [Dispatcher] is the only consumer of device completions; it blocks in
//     Reap and feeds the pool
//   - [ResetCoordinator] waits a fixed delay on its own goroutine, resets
//     the device and zeroes the counters
//   - the shutdown sequence in [Session.Close] cancels, drains, joins and
//     releases, in that order, exactly once
//
// # Shutdown
//
// The flag is raised by an operating system signal, by the first failed
// transfer, or by a failed completion wait. Nothing else stops the pipeline:
// a failed reset is reported and traffic continues.
//
// # Example
//
//	dev, err := linux.Open(linux.OpenOptions{VendorID: 0x0525, ProductID: 0xa4a0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess, err := host.NewSession(dev, host.DefaultConfig())
//	if err != nil {
//	    dev.ReleaseInterface()
//	    dev.Close()
//	    log.Fatal(err)
//	}
//	err = sess.Run()
//
// An in-process device for tests is available in
// [github.com/ardnew/xferreset/host/hal/sim].
package host
