package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/hookscope/hookscope/pkg/http/response"
	"go.uber.org/zap"
)

type Recovery struct {
	// Fallback writes the response for a recovered panic. It defaults to
	// a 500 JSON error.
	Fallback func(err error, w http.ResponseWriter)
	log      *zap.SugaredLogger
}

func NewRecovery(log *zap.SugaredLogger, fallback func(err error, w http.ResponseWriter)) *Recovery {
	if fallback == nil {
		fallback = func(err error, w http.ResponseWriter) {
			response.JSON(w, 500, response.ErrorResponse{Message: "internal error"})
		}
	}
	return &Recovery{Fallback: fallback, log: log}
}

func (m *Recovery) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if e := recover(); e != nil {
				if e == http.ErrAbortHandler {
					panic(e)
				}
				var err error
				switch v := e.(type) {
				case error:
					err = v
				default:
					err = errors.New(fmt.Sprint(e))
				}

				buf := make([]byte, 2048)
				n := runtime.Stack(buf, false)
				buf = buf[:n]

				m.log.Errorf("panic recovered: %v\n %s", err, buf)
				m.Fallback(err, w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
