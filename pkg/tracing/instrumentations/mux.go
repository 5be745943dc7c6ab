package instrumentations

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hookscope/hookscope/pkg/tracing"
)

type InstrumentedMux struct {
	tracer *tracing.Tracer
}

func NewInstrumentedMux(tracer *tracing.Tracer) *InstrumentedMux {
	return &InstrumentedMux{tracer: tracer}
}

// Handle names the span after the matched route template.
func (m *InstrumentedMux) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route == nil || m.tracer == nil {
			next.ServeHTTP(w, r)
			return
		}

		name := route.GetName()
		if name == "" {
			tpl, _ := route.GetPathTemplate()
			name = fmt.Sprintf("%s %s", r.Method, tpl)
		}
		ctx, span := m.tracer.Start(r.Context(), name)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
