package apidatasetv1

import (
	"context"

	"github.com/fulldump/tickdb/service"
)

func deleteRows(ctx context.Context, input *service.DeleteQuery) (*service.DeleteResult, error) {

	address, err := getAddress(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).Delete(address, input)
}
