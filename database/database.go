package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/logger"
	"github.com/fulldump/tickdb/tickstore"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var (
	ErrNotOperating = errors.New("database is not operating")
	ErrKindMismatch = errors.New("dataset kind does not match the store")
)

type Config struct {
	Dir                    string
	ReadOnly               bool
	MaximumReadBufferBytes uint64
	FlushInterval          time.Duration
	Logger                 *logger.Logger
}

type Database struct {
	config *Config
	log    *logger.Logger

	mu     sync.Mutex
	status string
	file   *container.File
	prices map[container.Address]*tickstore.PriceStore
	quotes map[container.Address]*tickstore.QuoteStore
	trades map[container.Address]*tickstore.TradeStore

	exit     chan struct{}
	stopOnce sync.Once
}

func NewDatabase(config *Config) *Database {
	log := config.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Database{
		config: config,
		log:    log,
		status: StatusOpening,
		prices: map[container.Address]*tickstore.PriceStore{},
		quotes: map[container.Address]*tickstore.QuoteStore{},
		trades: map[container.Address]*tickstore.TradeStore{},
		exit:   make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mu.Lock()
	db.status = status
	db.mu.Unlock()
}

// File is the underlying container, nil until Load succeeds.
func (db *Database) File() *container.File {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.file
}

func (db *Database) Load() error {

	db.log.Info("loading database",
		logger.NewField("dir", db.config.Dir),
		logger.NewField("read_only", db.config.ReadOnly),
	)

	mode := container.ModeReadWrite
	if db.config.ReadOnly {
		mode = container.ModeRead
	}

	t0 := time.Now()
	f, err := container.Open(db.config.Dir, mode)
	if err != nil {
		db.log.Error(err, logger.NewField("dir", db.config.Dir))
		db.setStatus(StatusClosing)
		return err
	}

	db.mu.Lock()
	db.file = f
	db.status = StatusOperating
	db.mu.Unlock()

	db.log.Info("database loaded",
		logger.NewField("datasets", len(f.Datasets())),
		logger.NewField("elapsed", time.Since(t0).String()),
	)

	return nil
}

// Start loads the database and blocks until Stop is called.
func (db *Database) Start() error {

	go func() {
		if err := db.Load(); err != nil {
			return
		}
		if db.config.ReadOnly || db.config.FlushInterval <= 0 {
			return
		}
		stop := container.StartBackgroundFlusher(db.File(), db.config.FlushInterval, func(err error) {
			db.log.Error(err, logger.NewField("component", "flusher"))
		})
		<-db.exit
		close(stop)
	}()

	<-db.exit

	return nil
}

// Stop closes every open store and the container. Calling it again is a
// no-op.
func (db *Database) Stop() error {

	var lastErr error

	db.stopOnce.Do(func() {
		defer close(db.exit)

		db.mu.Lock()
		db.status = StatusClosing
		closers := map[container.Address]func() error{}
		for address, s := range db.prices {
			closers[address] = s.Close
		}
		for address, s := range db.quotes {
			closers[address] = s.Close
		}
		for address, s := range db.trades {
			closers[address] = s.Close
		}
		f := db.file
		db.mu.Unlock()

		for address, closeStore := range closers {
			db.log.Debug("closing store", logger.NewField("dataset", address.String()))
			if err := closeStore(); err != nil {
				db.log.Error(err, logger.NewField("dataset", address.String()))
				lastErr = err
			}
		}

		if f != nil {
			if err := f.Close(); err != nil {
				db.log.Error(err)
				lastErr = err
			}
		}

		db.log.Info("database closed")
	})

	return lastErr
}

// Datasets lists the datasets in the container.
func (db *Database) Datasets() ([]container.Address, error) {
	f, err := db.operating()
	if err != nil {
		return nil, err
	}
	return f.Datasets(), nil
}

// Prices returns the price-only OHLCV store at address, opening it on first
// use. In read-write mode a missing dataset is created.
func (db *Database) Prices(address container.Address) (*tickstore.PriceStore, error) {
	return openStore(db, db.prices, address, container.KindBars, tickstore.PriceCodec{})
}

func (db *Database) Quotes(address container.Address) (*tickstore.QuoteStore, error) {
	return openStore(db, db.quotes, address, container.KindQuotes, tickstore.QuoteCodec{})
}

func (db *Database) Trades(address container.Address) (*tickstore.TradeStore, error) {
	return openStore(db, db.trades, address, container.KindTrades, tickstore.TradeCodec{})
}

// DropDataset closes the store at address, if any, and deletes its file.
func (db *Database) DropDataset(address container.Address) error {
	f, err := db.operating()
	if err != nil {
		return err
	}

	db.mu.Lock()
	var closeStore func() error
	if s, ok := db.prices[address]; ok {
		closeStore = s.Close
		delete(db.prices, address)
	}
	if s, ok := db.quotes[address]; ok {
		closeStore = s.Close
		delete(db.quotes, address)
	}
	if s, ok := db.trades[address]; ok {
		closeStore = s.Close
		delete(db.trades, address)
	}
	db.mu.Unlock()

	if closeStore != nil {
		if err := closeStore(); err != nil {
			return fmt.Errorf("close '%s': %w", address, err)
		}
	}

	err = f.Remove(address)
	if err != nil {
		return err
	}

	db.log.Info("dataset dropped", logger.NewField("dataset", address.String()))
	return nil
}

func (db *Database) operating() (*container.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.status != StatusOperating || db.file == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOperating, db.status)
	}
	return db.file, nil
}

func (db *Database) storeOptions() tickstore.Options {
	return tickstore.Options{
		MaximumReadBufferBytes: db.config.MaximumReadBufferBytes,
		Logger:                 db.log,
	}
}

func openStore[V any](db *Database, stores map[container.Address]*tickstore.Store[V], address container.Address, kind container.Kind, codec tickstore.Codec[V]) (*tickstore.Store[V], error) {
	if address.Kind != kind {
		return nil, fmt.Errorf("%w: '%s' is not %s", ErrKindMismatch, address, kind)
	}

	f, err := db.operating()
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if s, ok := stores[address]; ok {
		return s, nil
	}

	d, err := f.Dataset(address, tickstore.RecordSize(codec))
	if err != nil {
		return nil, err
	}

	s, err := tickstore.Open(d, codec, db.storeOptions())
	if err != nil {
		d.Close()
		return nil, err
	}

	stores[address] = s
	db.log.Debug("store opened",
		logger.NewField("dataset", address.String()),
		logger.NewField("count", s.Count()),
	)

	return s, nil
}
