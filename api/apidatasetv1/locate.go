package apidatasetv1

import (
	"context"

	"github.com/fulldump/tickdb/service"
)

type locateRequest struct {
	Ticks int64 `json:"ticks"`
}

func locate(ctx context.Context, input *locateRequest) (*service.LocateResult, error) {

	address, err := getAddress(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).Locate(address, input.Ticks)
}
