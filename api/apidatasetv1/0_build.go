package apidatasetv1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/tickdb/service"
)

func BuildV1Dataset(v1 *box.R, s service.Servicer) *box.R {

	datasets := v1.Resource("/datasets").
		WithActions(
			box.Get(listDatasets),
		)

	v1.Resource("/datasets/{kind}/{timeframe}/{instrument}").
		WithActions(
			box.Get(getDataset),
			box.ActionPost(add),
			box.ActionPost(fetch),
			box.ActionPost(locate),
			box.ActionPost(deleteRows).WithName("delete"),
			box.ActionPost(drop),
		)

	return datasets
}
