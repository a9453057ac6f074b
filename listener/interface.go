package listener

type Interface interface {
	// Start launches the capture loop. It is a no-op after the first call.
	Start()
	// Stop asks the loop to quit after its current read and blocks until the
	// loop has exited and closed its source.
	Stop()
	// Latest returns the most recent snapshot without blocking.
	Latest() (Snapshot, bool)
	// Done is closed when the capture loop has exited.
	Done() <-chan struct{}
	// Err reports why the loop exited; nil while running or after Stop.
	Err() error
}

// Source delivers blocks of mono 16-bit PCM.
type Source interface {
	// Read fills block completely. ErrInputOverflowed reports lost input
	// while block still holds valid samples.
	Read(block []int16) error
	Close() error
}
