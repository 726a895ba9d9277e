package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/tickdb/bootstrap"
	"github.com/fulldump/tickdb/configuration"
	"github.com/fulldump/tickdb/logger"
	"github.com/fulldump/tickdb/service"
)

var client = &http.Client{
	Transport: &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConnsPerHost: 1024,
		MaxIdleConns:        1024,
	},
}

func Parallel(workers int, f func(worker int)) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			f(worker)
		}(i)
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "tickdb_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

func CreateServer(c *Config) (start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.EnableCompression = false
	c.Base = "http://" + conf.HttpAddr

	start, stop, err := bootstrap.Bootstrap(&conf, logger.NewNop())
	if err != nil {
		panic("Could not start server: " + err.Error())
	}
	return start, stop
}

// DatasetURL returns the bars dataset written by a worker.
func DatasetURL(base, test string, worker int) string {
	return base + "/v1/datasets/bars/1m/bench~" + test + "-" + strconv.Itoa(worker) +
		"-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}

// Post sends body as JSON and decodes the response into out when it is not nil.
func Post(url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: status %d: %s", url, resp.StatusCode, b)
	}
	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.UnmarshalRead(resp.Body, out)
}

// Batch builds rows for ticks first, first+step, first+2*step...
func Batch(first, step int64, n int) []*service.JSONRow {
	rows := make([]*service.JSONRow, n)
	for i := range rows {
		ticks := first + int64(i)*step
		price := float64(ticks%10_000) / 100
		rows[i] = &service.JSONRow{Ticks: ticks, Price: &price}
	}
	return rows
}

func Report(rows int64, took time.Duration) {
	fmt.Println("rows:", rows)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(rows)/took.Seconds())
}
