package apidatasetv1

import (
	"context"
	"net/http"
)

func drop(ctx context.Context, w http.ResponseWriter) error {

	address, err := getAddress(ctx)
	if err != nil {
		return err
	}

	err = GetServicer(ctx).DropDataset(address)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
