package configuration

import (
	"time"

	"github.com/fulldump/tickdb/tickstore"
)

type Configuration struct {
	HttpAddr               string        `usage:"HTTP address"`
	Dir                    string        `usage:"data directory"`
	ReadOnly               bool          `usage:"open datasets read only"`
	MaximumReadBufferBytes uint64        `usage:"maximum bytes read from disk at once by every store operation"`
	FlushInterval          time.Duration `usage:"sync datasets to disk every interval, 0 disables it"`
	LogLevel               string        `usage:"log level [debug|info|warn|error]"`
	ApiKey                 string        `usage:"API key, empty disables authentication"`
	ApiSecret              string        `usage:"API secret"`
	EnableCompression      bool          `usage:"gzip responses when the client accepts it"`
	Version                bool          `usage:"show version and exit"`
	ShowBanner             bool          `usage:"show big banner"`
	ShowConfig             bool          `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:               "127.0.0.1:8080",
		Dir:                    "data",
		MaximumReadBufferBytes: tickstore.DefaultMaximumReadBufferBytes,
		FlushInterval:          time.Second,
		LogLevel:               "info",
		EnableCompression:      true,
		ShowBanner:             true,
	}
}
