//go:build unix

package host

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// NotifySignals relays SIGINT, SIGTERM and SIGQUIT to the returned channel.
// Call stop to restore default signal handling.
func NotifySignals() (sigs <-chan os.Signal, stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGINT, unix.SIGTERM, unix.SIGQUIT)
	return ch, func() { signal.Stop(ch) }
}
