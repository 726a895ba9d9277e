package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fulldump/tickdb/service"
)

// TestAppend writes increasing ticks, so every batch lands after the last row.
func TestAppend(c Config) {
	fmt.Println("APPEND")

	sent := int64(0)
	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {
		url := DatasetURL(c.Base, "append", worker) + ":add"
		for first := int64(0); first < c.N; first += int64(c.Batch) {
			n := min(int64(c.Batch), c.N-first)
			err := Post(url, &service.AddInput{Rows: Batch(first, 1, int(n))}, nil)
			if err != nil {
				fmt.Println("ERROR:", err.Error())
				os.Exit(3)
			}
			atomic.AddInt64(&sent, n)
		}
	})
	Report(sent, time.Since(t0))
}

// TestMerge writes even ticks first and then the odd ones, so the second half
// of the batches interleaves with rows already stored.
func TestMerge(c Config) {
	fmt.Println("MERGE")

	sent := int64(0)
	t0 := time.Now()
	Parallel(c.Workers, func(worker int) {
		url := DatasetURL(c.Base, "merge", worker) + ":add"
		half := c.N / 2
		for _, offset := range []int64{0, 1} {
			for first := int64(0); first < half; first += int64(c.Batch) {
				n := min(int64(c.Batch), half-first)
				rows := Batch(2*first+offset, 2, int(n))
				err := Post(url, &service.AddInput{Rows: rows, Policy: "update"}, nil)
				if err != nil {
					fmt.Println("ERROR:", err.Error())
					os.Exit(3)
				}
				atomic.AddInt64(&sent, n)
			}
		}
	})
	Report(sent, time.Since(t0))
}
