package apidatasetv1

import (
	"context"

	"github.com/fulldump/tickdb/service"
)

func listDatasets(ctx context.Context) ([]*service.Dataset, error) {
	return GetServicer(ctx).ListDatasets()
}
