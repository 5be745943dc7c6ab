package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hookscope/hookscope/config"
	dberrs "github.com/hookscope/hookscope/db/errs"
	"github.com/hookscope/hookscope/pkg/errs"
	"github.com/hookscope/hookscope/pkg/function"
	"github.com/hookscope/hookscope/pkg/http/middlewares"
	"github.com/hookscope/hookscope/pkg/http/response"
	"github.com/hookscope/hookscope/pkg/store"
	"go.uber.org/zap"
)

const MsgNotFound = "not found"

type API struct {
	cfg         *config.Config
	engine      function.Runner
	store       store.Store
	log         *zap.SugaredLogger
	middlewares []mux.MiddlewareFunc
}

type Options struct {
	Config      *config.Config
	Engine      function.Runner
	Store       store.Store
	Logger      *zap.SugaredLogger
	Middlewares []mux.MiddlewareFunc
}

func NewAPI(opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	return &API{
		cfg:         opts.Config,
		engine:      opts.Engine,
		store:       opts.Store,
		log:         log.Named("admin"),
		middlewares: opts.Middlewares,
	}
}

// param returns the value of an url variable
func (api *API) param(r *http.Request, variable string) string {
	return mux.Vars(r)[variable]
}

// tenant resolves the fingerprint and origin route variables.
func (api *API) tenant(r *http.Request) function.Tenant {
	origin := api.param(r, "origin")
	if origin == "" {
		origin = api.cfg.Proxy.DefaultOrigin
	}
	return function.Tenant{Fingerprint: api.param(r, "fingerprint"), Origin: origin}
}

func (api *API) json(code int, w http.ResponseWriter, data interface{}) {
	response.JSON(w, code, data)
}

func (api *API) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

func (api *API) error(code int, w http.ResponseWriter, err error) {
	var validateErr *errs.ValidateError
	if errors.As(err, &validateErr) {
		api.json(code, w, response.ErrorResponse{
			Message: "Request Validation",
			Error:   validateErr,
		})
		return
	}
	api.json(code, w, response.ErrorResponse{Message: err.Error()})
}

func (api *API) assert(err error) {
	if err != nil {
		panic(err)
	}
}

func (api *API) recovered(err error, w http.ResponseWriter) {
	if errors.Is(err, dberrs.ErrConflict) {
		api.json(409, w, response.ErrorResponse{Message: err.Error()})
		return
	}
	api.json(500, w, response.ErrorResponse{Message: "internal error"})
}

// Handler returns a http.Handler
func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, 404, response.ErrorResponse{Message: MsgNotFound})
	})

	for _, m := range api.middlewares {
		r.Use(m)
	}
	r.Use(middlewares.NewRecovery(api.log, api.recovered).Handle)

	r.HandleFunc("/", api.Index).Methods("GET")

	r.HandleFunc("/eval", api.Eval).Methods("POST")

	for _, path := range []string{"/scripts/{fingerprint}", "/scripts/{fingerprint}/{origin:.*}"} {
		r.HandleFunc(path, api.GetScript).Methods("GET")
		r.HandleFunc(path, api.CreateScript).Methods("POST")
		r.HandleFunc(path, api.UpdateScript).Methods("PUT")
	}

	for _, path := range []string{"/logs/{fingerprint}", "/logs/{fingerprint}/{origin:.*}"} {
		r.HandleFunc(path, api.ListLogs).Methods("GET")
	}

	return r
}
