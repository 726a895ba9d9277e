package service

import (
	"fmt"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/database"
	"github.com/fulldump/tickdb/tickstore"
)

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

// open returns the handler for the dataset at address. Missing datasets are
// created only when create is true.
func (s *Service) open(address container.Address, create bool) (handler, error) {

	if err := address.Validate(); err != nil {
		return nil, err
	}

	f := s.db.File()
	if f == nil {
		return nil, database.ErrNotOperating
	}
	if !f.Has(address) {
		if !create {
			return nil, fmt.Errorf("%w: %s", ErrorDatasetNotFound, address)
		}
		if f.ReadOnly() {
			return nil, fmt.Errorf("%w: cannot create %s", container.ErrReadOnly, address)
		}
	}

	switch address.Kind {
	case container.KindBars:
		store, err := s.db.Prices(address)
		if err != nil {
			return nil, err
		}
		return &typed[tickstore.Price]{address: address, store: store, shape: priceShape}, nil
	case container.KindQuotes:
		store, err := s.db.Quotes(address)
		if err != nil {
			return nil, err
		}
		return &typed[tickstore.Quote]{address: address, store: store, shape: quoteShape}, nil
	case container.KindTrades:
		store, err := s.db.Trades(address)
		if err != nil {
			return nil, err
		}
		return &typed[tickstore.Trade]{address: address, store: store, shape: tradeShape}, nil
	}

	return nil, fmt.Errorf("%w: unknown kind %d", container.ErrInvalidAddress, address.Kind)
}

func (s *Service) ListDatasets() ([]*Dataset, error) {

	addresses, err := s.db.Datasets()
	if err != nil {
		return nil, err
	}

	result := []*Dataset{}
	for _, address := range addresses {
		h, err := s.open(address, false)
		if err != nil {
			return nil, fmt.Errorf("open '%s': %w", address, err)
		}
		result = append(result, h.info())
	}

	return result, nil
}

func (s *Service) GetDataset(address container.Address) (*Dataset, error) {
	h, err := s.open(address, false)
	if err != nil {
		return nil, err
	}
	return h.info(), nil
}

func (s *Service) DropDataset(address container.Address) error {
	if _, err := s.open(address, false); err != nil {
		return err
	}
	return s.db.DropDataset(address)
}

// Add stores rows in the dataset at address, creating it if needed.
func (s *Service) Add(address container.Address, input *AddInput) (*AddResult, error) {

	policy := tickstore.DuplicateFail
	if input.Policy != "" {
		var err error
		policy, err = tickstore.ParseDuplicatePolicy(input.Policy)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrorBadMode, err.Error())
		}
	}

	h, err := s.open(address, true)
	if err != nil {
		return nil, err
	}

	return h.add(input, policy)
}

func (s *Service) Fetch(address container.Address, query *FetchQuery, f func(row *JSONRow) error) error {
	h, err := s.open(address, false)
	if err != nil {
		return err
	}
	return h.fetch(query, f)
}

func (s *Service) Locate(address container.Address, ticks int64) (*LocateResult, error) {
	h, err := s.open(address, false)
	if err != nil {
		return nil, err
	}
	return h.locate(ticks)
}

func (s *Service) Delete(address container.Address, query *DeleteQuery) (*DeleteResult, error) {
	h, err := s.open(address, false)
	if err != nil {
		return nil, err
	}
	return h.delete(query)
}
