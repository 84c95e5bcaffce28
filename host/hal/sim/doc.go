// Package sim provides an in-process [hal.Device] for exercising the transfer
// pipeline without hardware.
//
// Submitted transfers stay pending until they are completed, either
// automatically (Options.AutoComplete) or explicitly through Complete,
// CompleteID and CompleteAll. Cancel completes a pending transfer with
// [pkg.TransferStatusCancelled], just as a real host controller reports a
// discarded request. Completed transfers are handed out by Reap in completion
// order.
//
// Every device-level operation is appended to a journal so tests can assert
// ordering, for example that the interface is released only after all
// cancellations were requested:
//
//	dev := sim.New(sim.Options{})
//	...
//	for _, op := range dev.Journal() {
//	    fmt.Println(op.Kind, op.ID)
//	}
//
// Failures are injected with FailSubmit, FailReap and FailReset.
package sim
