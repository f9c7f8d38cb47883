package mid

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/blockwitness/business/sys/metrics"
	"github.com/ardanlabs/blockwitness/foundation/web"
)

// Metrics updates the prometheus request counters. It must wrap Errors so
// the status code is set on the request values when the handler returns.
func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()
			err := handler(ctx, w, r)

			status := http.StatusOK
			if err != nil {
				status = http.StatusInternalServerError
			}
			if v, verr := web.GetValues(ctx); verr == nil && v.StatusCode != 0 {
				status = v.StatusCode
			}

			metrics.RecordRequest(r.Method, strconv.Itoa(status))
			metrics.ObserveRequestDuration(r.Method, time.Since(start).Seconds())

			return err
		}

		return h
	}

	return m
}
