package service

import (
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
	"github.com/go-json-experiment/json"
)

type JSON = map[string]interface{}

const eurusd = "/datasets/bars/1m/fx~EURUSD"

// Acceptance runs the HTTP scenarios against a server mounted at apiRequest.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("List datasets - empty", func(a *biff.A) {
		resp := apiRequest("GET", "/datasets").Do()
		Save(resp, "List datasets - empty", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), []JSON{})
	})

	a.Alternative("Get dataset - not found", func(a *biff.A) {
		resp := apiRequest("GET", "/datasets/bars/1m/fx~GBPUSD").Do()
		Save(resp, "Get dataset - not found", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Get dataset - bad address", func(a *biff.A) {
		resp := apiRequest("GET", "/datasets/candles/1m/fx~GBPUSD").Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Add rows", func(a *biff.A) {
		resp := apiRequest("POST", eurusd+":add").
			WithBodyJson(JSON{
				"policy": "update",
				"rows": []JSON{
					{"ticks": 100, "price": 1.0},
					{"ticks": 110, "price": 1.1},
					{"ticks": 130, "price": 1.3},
					{"ticks": 150, "price": 1.5},
				},
			}).Do()
		Save(resp, "Add rows", `
			Rows must be ascending by ticks. Use "spread": true to sort them and
			turn repeated ticks into consecutive ones.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"received": 4,
			"spread":   false,
			"count":    4,
			"added":    4,
		})

		a.Alternative("Get dataset", func(a *biff.A) {
			resp := apiRequest("GET", eurusd).Do()
			Save(resp, "Get dataset", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"instrument":                "fx/EURUSD",
				"kind":                      "bars",
				"timeframe":                 "1m",
				"count":                     4,
				"first_ticks":               100,
				"last_ticks":                150,
				"read_only":                 false,
				"maximum_read_buffer_bytes": 1048576,
			})
		})

		a.Alternative("List datasets", func(a *biff.A) {
			resp := apiRequest("GET", "/datasets").Do()
			Save(resp, "List datasets", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(body), 1)
		})

		a.Alternative("Add rows - update", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":add").
				WithBodyJson(JSON{
					"policy": "update",
					"rows":   []JSON{{"ticks": 100, "price": 1.01}},
				}).Do()
			Save(resp, "Add rows - update", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			resp = apiRequest("POST", eurusd+":fetch").WithBodyJson(JSON{}).Do()
			biff.AssertEqualJson(NDJSON(resp.BodyString()), []JSON{
				{"ticks": 100, "price": 1.01},
				{"ticks": 110, "price": 1.1},
				{"ticks": 130, "price": 1.3},
				{"ticks": 150, "price": 1.5},
			})
		})

		a.Alternative("Add rows - duplicated", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":add").
				WithBodyJson(JSON{
					"policy": "fail",
					"rows":   []JSON{{"ticks": 90, "price": 0.9}, {"ticks": 100, "price": 1.01}},
				}).Do()
			Save(resp, "Add rows - duplicated", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)

			resp = apiRequest("GET", eurusd).Do()
			biff.AssertEqualJson(resp.BodyJsonMap()["count"], 4)
		})

		a.Alternative("Add rows - unsorted", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":add").
				WithBodyJson(JSON{
					"rows": []JSON{{"ticks": 200, "price": 2}, {"ticks": 160, "price": 1.6}},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Add rows - missing value", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":add").
				WithBodyJson(JSON{
					"rows": []JSON{{"ticks": 200}},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Fetch - ticks", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":fetch").
				WithBodyJson(JSON{
					"mode":       "ticks",
					"from_ticks": 105,
					"to_ticks":   140,
				}).Do()
			Save(resp, "Fetch - ticks", `
				Rows are streamed one JSON document per line.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(NDJSON(resp.BodyString()), []JSON{
				{"ticks": 110, "price": 1.1},
				{"ticks": 130, "price": 1.3},
			})
		})

		a.Alternative("Fetch - index", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":fetch").
				WithBodyJson(JSON{
					"mode":       "index",
					"from_index": 2,
					"count":      10,
				}).Do()
			Save(resp, "Fetch - index", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(NDJSON(resp.BodyString()), []JSON{
				{"ticks": 130, "price": 1.3},
				{"ticks": 150, "price": 1.5},
			})
		})

		a.Alternative("Fetch - index out of range", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":fetch").
				WithBodyJson(JSON{
					"mode":       "index",
					"from_index": 4,
					"count":      1,
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Fetch - filter", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":fetch").
				WithBodyJson(JSON{
					"filter": JSON{"price": JSON{"$gt": 1.2}},
					"skip":   1,
					"limit":  1,
				}).Do()
			Save(resp, "Fetch - filter", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(NDJSON(resp.BodyString()), []JSON{
				{"ticks": 150, "price": 1.5},
			})
		})

		a.Alternative("Fetch - bad mode", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":fetch").
				WithBodyJson(JSON{"mode": "everything"}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Locate", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":locate").
				WithBodyJson(JSON{"ticks": 120}).Do()
			Save(resp, "Locate", `
				Ticks before the first row or after the last one are clamped and
				reported as matched.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"index": 1,
				"match": false,
				"kind":  "none",
			})
		})

		a.Alternative("Delete - index", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":delete").
				WithBodyJson(JSON{"mode": "index", "from_index": 1, "to_index": 2}).Do()
			Save(resp, "Delete - index", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"removed": 2, "count": 2})

			resp = apiRequest("POST", eurusd+":fetch").WithBodyJson(JSON{}).Do()
			biff.AssertEqualJson(NDJSON(resp.BodyString()), []JSON{
				{"ticks": 100, "price": 1.0},
				{"ticks": 150, "price": 1.5},
			})
		})

		a.Alternative("Delete - after ticks", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":delete").
				WithBodyJson(JSON{"mode": "after_ticks", "ticks": 120}).Do()
			Save(resp, "Delete - after ticks", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"removed": 2, "count": 2})
		})

		a.Alternative("Delete - out of range", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":delete").
				WithBodyJson(JSON{"mode": "index", "from_index": 1, "to_index": 5}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Drop dataset", func(a *biff.A) {
			resp := apiRequest("POST", eurusd+":drop").Do()
			Save(resp, "Drop dataset", `
				The dataset file is removed, the response has no body.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)
			biff.AssertEqual(resp.BodyString(), "")

			a.Alternative("Get dropped dataset", func(a *biff.A) {
				resp := apiRequest("GET", eurusd).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})
	})

	a.Alternative("Add quotes - spread", func(a *biff.A) {
		resp := apiRequest("POST", "/datasets/quotes/tick/EURUSD:add").
			WithBodyJson(JSON{
				"spread": true,
				"rows": []JSON{
					{"ticks": 10, "bid": 1.1, "ask": 1.2},
					{"ticks": 5, "bid": 1.0, "ask": 1.1},
					{"ticks": 10, "bid": 1.3, "ask": 1.4},
				},
			}).Do()
		Save(resp, "Add quotes - spread", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"received": 3,
			"spread":   true,
			"count":    3,
			"added":    3,
		})

		resp = apiRequest("POST", "/datasets/quotes/tick/EURUSD:fetch").WithBodyJson(JSON{}).Do()
		biff.AssertEqualJson(NDJSON(resp.BodyString()), []JSON{
			{"ticks": 5, "bid": 1.0, "ask": 1.1},
			{"ticks": 10, "bid": 1.1, "ask": 1.2},
			{"ticks": 11, "bid": 1.3, "ask": 1.4},
		})
	})
}

// NDJSON decodes one JSON document per line.
func NDJSON(body string) []JSON {
	result := []JSON{}
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item := JSON{}
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			panic(err)
		}
		result = append(result, item)
	}
	return result
}
