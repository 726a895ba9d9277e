package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/fulldump/goconfig"
)

type Config struct {
	Test    string `usage:"name of the test: ALL | APPEND | MERGE | FETCH"`
	Base    string `usage:"base URL, empty to start an embedded server"`
	N       int64  `usage:"number of rows per worker"`
	Batch   int    `usage:"rows per add request"`
	Workers int    `usage:"number of workers, each one writes its own instrument"`
}

var cleanups []func()

func main() {

	defer func() {
		fmt.Println("Cleaning up...")
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	c := Config{
		Test:    "append",
		Base:    "",
		N:       1_000_000,
		Batch:   10_000,
		Workers: 8,
	}
	goconfig.Read(&c)

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	switch strings.ToUpper(c.Test) {
	case "ALL":
		TestAppend(c)
		TestMerge(c)
		TestFetch(c)
	case "APPEND":
		TestAppend(c)
	case "MERGE":
		TestMerge(c)
	case "FETCH":
		TestAppend(c)
		TestFetch(c)
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}

}
