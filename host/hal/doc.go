// Package hal defines the device contract the transfer pipeline runs against.
//
// The pipeline never opens, discovers or claims a device itself. It receives
// a [Device] that is already open with its interface claimed, drives bulk
// transfers through it, and hands it back for release on shutdown.
//
// # Interface Overview
//
// The [Device] interface has three groups of operations:
//   - Transfer lifecycle: Alloc, Submit, Cancel, Free
//   - Completion: Reap blocks until at least one transfer completes
//   - Device control: Reset, ReleaseInterface, Close
//
// # Threading
//
// Submit, Cancel and Reap form a single-consumer channel and are only called
// from the dispatcher goroutine. Reset is called from the reset coordinator
// goroutine while traffic is active; implementations must allow it.
//
// # Implementations
//
//   - [github.com/ardnew/xferreset/host/hal/linux]: Linux usbfs URBs
//   - [github.com/ardnew/xferreset/host/hal/sim]: in-process simulator
//   - [github.com/ardnew/xferreset/host/hal/mock]: gomock double for tests
package hal
