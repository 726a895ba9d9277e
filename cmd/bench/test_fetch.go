package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json"
)

// TestFetch streams every row of the datasets written by TestAppend.
func TestFetch(c Config) {
	fmt.Println("FETCH")

	resp, err := client.Get(c.Base + "/v1/datasets")
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(3)
	}
	datasets := []struct {
		Instrument string `json:"instrument"`
	}{}
	err = decodeJSON(resp, &datasets)
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(3)
	}

	instruments := []string{}
	for _, d := range datasets {
		if strings.HasPrefix(d.Instrument, "bench/append-") {
			instruments = append(instruments, strings.ReplaceAll(d.Instrument, "/", "~"))
		}
	}

	received := int64(0)
	t0 := time.Now()
	Parallel(len(instruments), func(worker int) {
		url := c.Base + "/v1/datasets/bars/1m/" + instruments[worker] + ":fetch"
		resp, err := client.Post(url, "application/json", nil)
		if err != nil {
			fmt.Println("ERROR:", err.Error())
			os.Exit(4)
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			atomic.AddInt64(&received, 1)
		}
	})
	Report(received, time.Since(t0))
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.UnmarshalRead(resp.Body, out)
}
