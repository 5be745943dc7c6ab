package admin

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/pkg/safe"
	"github.com/hookscope/hookscope/utils"
	"go.uber.org/zap"
)

// Admin serves the script editor API.
type Admin struct {
	cfg *config.AdminConfig
	s   *http.Server
	log *zap.SugaredLogger
}

func NewAdmin(cfg config.AdminConfig, handler http.Handler) *Admin {
	s := &http.Server{
		Handler: handler,
		Addr:    cfg.Listen,

		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	admin := &Admin{
		cfg: &cfg,
		s:   s,
		log: zap.S().Named("admin"),
	}

	return admin
}

// Start starts an HTTP server
func (a *Admin) Start() {
	safe.Go("admin", func() {
		tls := a.cfg.TLS
		var err error
		if tls.Enabled() {
			err = a.s.ListenAndServeTLS(tls.Cert, tls.Key)
		} else {
			err = a.s.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			a.log.Errorf("Failed to start Admin : %v", err)
			os.Exit(1)
		}
	})

	a.log.Infof("[admin] started on %s", utils.ListenAddrToURL(a.cfg.TLS.Enabled(), a.cfg.Listen))
}

// Stop stops the HTTP server
func (a *Admin) Stop(ctx context.Context) error {
	if err := a.s.Shutdown(ctx); err != nil {
		// Error from closing listeners, or context timeout:
		return err
	}
	return nil
}
