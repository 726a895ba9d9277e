package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/tickdb/database"
	"github.com/fulldump/tickdb/service"
)

const (
	testKey    = "desk-7"
	testSecret = "s3cr3t"
	eurusdAdd  = "/v1/datasets/bars/1m/fx~EURUSD:add"
)

type JSON = map[string]any

func signed(r *apitest.Request, key, secret string) *apitest.Request {
	return r.WithHeader("X-Api-Key", key).WithHeader("X-Api-Secret", secret)
}

func TestAuthenticate(t *testing.T) {

	biff.Alternative("Server with credentials", func(a *biff.A) {

		db := database.NewDatabase(&database.Config{
			Dir: t.TempDir(),
		})
		biff.AssertNil(db.Load())

		b := Build(service.NewService(db), "test", testKey, testSecret)
		b.WithInterceptors(
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		rows := JSON{"rows": []JSON{{"ticks": 1, "price": 1.1}}}

		a.Alternative("Add without headers", func(a *biff.A) {
			resp := api.Request("POST", eurusdAdd).WithBodyJson(rows).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"error": JSON{
					"message":     "unauthorized",
					"description": "user is not authenticated",
				},
			})

			resp = signed(api.Request("GET", "/v1/datasets"), testKey, testSecret).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{})
		})

		a.Alternative("Add with a wrong secret", func(a *biff.A) {
			resp := signed(api.Request("POST", eurusdAdd), testKey, "guess").WithBodyJson(rows).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
		})

		a.Alternative("Key without secret", func(a *biff.A) {
			resp := api.Request("POST", eurusdAdd).
				WithHeader("X-Api-Key", testKey).
				WithBodyJson(rows).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
		})

		a.Alternative("Credentials swapped", func(a *biff.A) {
			resp := signed(api.Request("GET", "/v1/datasets"), testSecret, testKey).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
		})

		a.Alternative("Add signed", func(a *biff.A) {
			resp := signed(api.Request("POST", eurusdAdd), testKey, testSecret).WithBodyJson(rows).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			resp = signed(api.Request("POST", "/v1/datasets/bars/1m/fx~EURUSD:fetch"), testKey, testSecret).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyString(), "{\"ticks\":1,\"price\":1.1}\n")

			resp = api.Request("POST", "/v1/datasets/bars/1m/fx~EURUSD:drop").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusUnauthorized)
		})

		a.Alternative("Release is public", func(a *biff.A) {
			resp := api.Request("GET", "/release").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
		})
	})
}

func TestAuthenticate_Disabled(t *testing.T) {
	db := database.NewDatabase(&database.Config{
		Dir: t.TempDir(),
	})
	biff.AssertNil(db.Load())

	api := apitest.NewWithHandler(Build(service.NewService(db), "test", "", ""))

	resp := api.Request("GET", "/v1/datasets").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
}
