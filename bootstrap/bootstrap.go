package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"

	"github.com/fulldump/tickdb/api"
	"github.com/fulldump/tickdb/configuration"
	"github.com/fulldump/tickdb/database"
	"github.com/fulldump/tickdb/logger"
	"github.com/fulldump/tickdb/service"
)

var VERSION = "dev"

// Bootstrap wires the database, the API and the HTTP server. start blocks
// until stop is called or the process receives SIGTERM or SIGINT.
func Bootstrap(c *configuration.Configuration, l *logger.Logger) (start, stop func(), err error) {

	db := database.NewDatabase(&database.Config{
		Dir:                    c.Dir,
		ReadOnly:               c.ReadOnly,
		MaximumReadBufferBytes: c.MaximumReadBufferBytes,
		FlushInterval:          c.FlushInterval,
		Logger:                 l,
	})

	b := api.Build(service.NewService(db), VERSION, c.ApiKey, c.ApiSecret)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(l.WithFields(logger.NewField("component", "access"))),
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		return nil, nil, err
	}
	l.Info("listening", logger.NewField("addr", c.HttpAddr))

	stopOnce := sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			if err := db.Stop(); err != nil {
				l.Error(err, logger.NewField("component", "database"))
			}
			s.Shutdown(context.Background())
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		l.Info("signal received", logger.NewField("signal", sig.String()))
		stop()
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				l.Error(err, logger.NewField("component", "database"))
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Serve(ln)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error(err, logger.NewField("component", "http"))
			}
		}()

		wg.Wait()
	}

	return start, stop, nil
}
