package apidatasetv1

import (
	"context"

	"github.com/fulldump/tickdb/service"
)

func getDataset(ctx context.Context) (*service.Dataset, error) {

	address, err := getAddress(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).GetDataset(address)
}
