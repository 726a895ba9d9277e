package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/tickdb/bootstrap"
	"github.com/fulldump/tickdb/configuration"
	"github.com/fulldump/tickdb/logger"
)

var banner = `
 _   _      _       _ _
| |_(_) ___| | ____| | |__
| __| |/ __| |/ / _` + "`" + ` | '_ \
| |_| | (__|   < (_| | |_) |
 \__|_|\___|_|\_\__,_|_.__/
                 version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	l, err := logger.NewLogger(
		logger.WithLoggingLevel(logger.Level(c.LogLevel)),
		logger.WithOutputPaths([]string{"stdout"}),
	)
	if err != nil {
		fmt.Println("ERROR: logger:", err.Error())
		os.Exit(-1)
	}
	defer l.Sync()

	start, _, err := bootstrap.Bootstrap(&c, l)
	if err != nil {
		l.Error(err)
		os.Exit(-1)
	}

	start()
}
