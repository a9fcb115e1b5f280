package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/internal/shared/httpx"
)

// Targets são as URLs base dos serviços atrás do gateway
type Targets struct {
	EventService string
	BetService   string
}

func proxy(name, to string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s url %q", name, to)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream request failed", zap.String("upstream", name), zap.String("path", r.URL.Path), zap.Error(err))
		httpx.WriteErrorStatus(w, http.StatusBadGateway, errs.Upstream(name, "", err))
	}
	return rp, nil
}

// Router expõe /api/events/* e /api/bets/* (prefixo /api removido antes do repasse)
func Router(t Targets, log *zap.Logger) (http.Handler, error) {
	events, err := proxy("event-service", t.EventService, log)
	if err != nil {
		return nil, err
	}
	bets, err := proxy("bet-service", t.BetService, log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, withCORS, httpx.RequestLogger(log))

	r.Route("/api", func(r chi.Router) {
		strip := func(h http.Handler) http.Handler { return http.StripPrefix("/api", h) }
		r.Handle("/events", strip(events))
		r.Handle("/events/*", strip(events))
		r.Handle("/ws", strip(events))
		r.Handle("/bets", strip(bets))
		r.Handle("/bets/*", strip(bets))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r, nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
