package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/tickdb/api/apidatasetv1"
	"github.com/fulldump/tickdb/service"
)

// Build mounts the API. Authentication is enabled when apiKey is not empty.
func Build(s service.Servicer, version string, apiKey, apiSecret string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
	)
	if apiKey != "" {
		v1.WithInterceptors(Authenticate(apiKey, apiSecret))
	}

	apidatasetv1.BuildV1Dataset(v1, s).
		WithInterceptors(
			injectServicer(s),
		)

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check the documentation",
			}
		}))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}))

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "tickdb"
	spec.Info.Description = "Tick ordered time series datasets: bars, quotes and trades."
	b.Resource("/openapi.json").
		WithActions(box.Get(func(r *http.Request) any {
			spec.Servers = []boxopenapi.Server{
				{
					Url: "http://" + r.Host,
				},
			}
			return spec
		}))

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apidatasetv1.SetServicer(ctx, s))
		}
	}
}
