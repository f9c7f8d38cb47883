package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/blockwitness/foundation/web"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Handle(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return err
		}

		resp := map[string]string{
			"number":  web.Param(r, "number"),
			"traceid": v.TraceID,
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
	app.Handle(http.MethodGet, "v1", "/blocks/:number", h, mw("route"))

	boom := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity failure")
	}
	app.Handle(http.MethodGet, "", "/boom", boom)

	t.Log("Given the need to route requests.")
	{
		t.Logf("\tTest 0:\tWhen calling a grouped route with a parameter.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/blocks/42", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould receive a 200, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a 200.", success)

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould decode the response: %v", failed, err)
			}

			if resp["number"] != "42" || resp["traceid"] == "" {
				t.Fatalf("\t%s\tTest 0:\tShould see the parameter and trace id: %v", failed, resp)
			}
			t.Logf("\t%s\tTest 0:\tShould see the parameter and trace id.", success)

			if len(order) != 2 || order[0] != "app" || order[1] != "route" {
				t.Fatalf("\t%s\tTest 0:\tShould run app middleware first: %v", failed, order)
			}
			t.Logf("\t%s\tTest 0:\tShould run app middleware first.", success)
		}

		t.Logf("\tTest 1:\tWhen a handler returns a shutdown error.")
		{
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			select {
			case <-shutdown:
				t.Logf("\t%s\tTest 1:\tShould signal a shutdown.", success)
			default:
				t.Fatalf("\t%s\tTest 1:\tShould signal a shutdown.", failed)
			}
		}
	}
}
