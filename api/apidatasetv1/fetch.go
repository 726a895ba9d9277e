package apidatasetv1

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/tickdb/service"
)

// fetch streams the selected rows as NDJSON. An empty body fetches every row.
func fetch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	query := &service.FetchQuery{}
	if len(bytes.TrimSpace(requestBody)) > 0 {
		err = json.Unmarshal(requestBody, query)
		if err != nil {
			return err
		}
	}

	address, err := getAddress(ctx)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	encoder := jsontext.NewEncoder(w)

	return GetServicer(ctx).Fetch(address, query, func(row *service.JSONRow) error {
		return json.MarshalEncode(encoder, row)
	})
}
