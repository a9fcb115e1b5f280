package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/event-service/domain"
	"github.com/radieske/line-bet-platform/internal/event-service/dto"
	"github.com/radieske/line-bet-platform/internal/event-service/lifecycle"
	"github.com/radieske/line-bet-platform/internal/event-service/ws"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/internal/shared/httpx"
	"github.com/radieske/line-bet-platform/internal/shared/money"
)

// Server expõe os endpoints REST do event-service (line provider)
type Server struct {
	log      *zap.Logger
	mgr      *lifecycle.Manager
	hub      *ws.Hub // opcional; nil desativa /ws
	validate *validator.Validate
	now      func() time.Time
}

func NewServer(log *zap.Logger, mgr *lifecycle.Manager, hub *ws.Hub) *Server {
	return &Server{log: log, mgr: mgr, hub: hub, validate: validator.New(), now: time.Now}
}

// Router retorna o roteador HTTP com os endpoints REST
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, middleware.StripSlashes, httpx.RequestLogger(s.log))

	r.Get("/", s.root)
	r.Get("/events", s.listEvents)                           // Eventos com deadline no futuro
	r.Post("/events", s.createEvent)                         // Cria evento NEW
	r.Post("/events/reconcile", s.reconcile)                 // Reenvia liquidação dos eventos finalizados
	r.Get("/events/{event_id}", s.getEvent)                  // Evento por id
	r.Patch("/events/{event_id}/status", s.updateEventState) // ?state=finished_win|finished_lose
	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
	return r
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Line Provider Service!"})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.mgr.ListActiveEvents(r.Context(), s.now())
	if err != nil {
		s.log.Error("list events", zap.Error(err))
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromDomainList(evs))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, errs.InvalidArgument("event", "", "bad json: "+err.Error()))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		httpx.WriteError(w, errs.InvalidArgument("event", req.EventID, err.Error()))
		return
	}

	ev, err := s.mgr.CreateEvent(r.Context(), req.EventID, money.FromFloat(req.Coefficient), req.Deadline)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.FromDomain(ev))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.mgr.GetEvent(r.Context(), chi.URLParam(r, "event_id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromDomain(ev))
}

func (s *Server) updateEventState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	state, err := domain.ParseState(r.URL.Query().Get("state"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ev, err := s.mgr.TransitionEvent(r.Context(), id, state)
	if err != nil {
		// falha na liquidação: transição já commitada, 500 para o chamador repetir
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromDomain(ev))
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	rep, err := s.mgr.Reconcile(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}
