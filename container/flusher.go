package container

import (
	"time"
)

// StartBackgroundFlusher syncs f every interval until the returned channel is
// closed. Sync errors are passed to onError when it is not nil.
func StartBackgroundFlusher(f *File, interval time.Duration, onError func(error)) chan struct{} {
	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := f.Flush(); err != nil && onError != nil {
					onError(err)
				}
			case <-stopChan:
				return
			}
		}
	}()

	return stopChan
}
