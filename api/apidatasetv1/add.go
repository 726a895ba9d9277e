package apidatasetv1

import (
	"context"

	"github.com/fulldump/tickdb/service"
)

func add(ctx context.Context, input *service.AddInput) (*service.AddResult, error) {

	address, err := getAddress(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).Add(address, input)
}
