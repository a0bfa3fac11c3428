package mid

import (
	"context"
	"net/http"

	"github.com/tcoin/blockchain/foundation/web"
)

// BodyLimit caps the number of bytes a handler can read from the request
// body. Reads past the limit fail with an *http.MaxBytesError.
func BodyLimit(limit int64) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
