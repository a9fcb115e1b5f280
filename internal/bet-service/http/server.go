package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/line-bet-platform/internal/bet-service/coordinator"
	"github.com/radieske/line-bet-platform/internal/bet-service/domain"
	"github.com/radieske/line-bet-platform/internal/bet-service/dto"
	"github.com/radieske/line-bet-platform/internal/bet-service/events"
	"github.com/radieske/line-bet-platform/internal/shared/errs"
	"github.com/radieske/line-bet-platform/internal/shared/httpx"
	"github.com/radieske/line-bet-platform/internal/shared/money"
)

// EventLister alimenta o proxy GET /events
type EventLister interface {
	ListEvents(ctx context.Context) ([]events.Event, error)
}

// Server expõe os endpoints REST do bet-service (bet maker)
type Server struct {
	log      *zap.Logger
	coord    *coordinator.Coordinator
	events   EventLister // opcional; nil desativa o proxy
	validate *validator.Validate
}

func NewServer(log *zap.Logger, coord *coordinator.Coordinator, ev EventLister) *Server {
	return &Server{log: log, coord: coord, events: ev, validate: validator.New()}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, middleware.StripSlashes, httpx.RequestLogger(s.log))

	r.Get("/", s.root)
	r.Post("/bets", s.placeBet)          // Aposta PENDING
	r.Get("/bets", s.listBets)           // Todas as apostas, em ordem de criação
	r.Post("/bets/update", s.updateBets) // Liquidação chamada pelo event-service
	r.Post("/bets/reconcile", s.reconcile)
	r.Get("/bets/{bet_id}", s.getBet)
	if s.events != nil {
		r.Get("/events", s.listEvents)
		r.Get("/get_events", s.listEvents) // rota legada
	}
	return r
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Bet Maker Service!"})
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, errs.InvalidArgument("bet", "", "bad json: "+err.Error()))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		httpx.WriteError(w, errs.InvalidArgument("bet", req.EventID, err.Error()))
		return
	}

	b, err := s.coord.PlaceBet(r.Context(), req.EventID, money.FromFloat(req.Amount))
	if err != nil {
		// contrato: evento inexistente ou fechado é erro do cliente
		switch errs.KindOf(err) {
		case errs.KindNotFound, errs.KindInvalidState:
			httpx.WriteErrorStatus(w, http.StatusBadRequest, err)
		case errs.KindUpstreamUnavailable:
			s.log.Error("place bet", zap.String("event_id", req.EventID), zap.Error(err))
			httpx.WriteError(w, err)
		default:
			httpx.WriteError(w, err)
		}
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.FromBet(b))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bs, err := s.coord.ListBets(r.Context())
	if err != nil {
		s.log.Error("list bets", zap.Error(err))
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromBets(bs))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.coord.GetBet(r.Context(), chi.URLParam(r, "bet_id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.FromBet(b))
}

func (s *Server) updateBets(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, errs.InvalidArgument("bet", "", "bad json: "+err.Error()))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		httpx.WriteError(w, errs.InvalidArgument("event", req.EventID, err.Error()))
		return
	}

	n, err := s.coord.ResolveBetsForEvent(r.Context(), req.EventID, req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	status, _ := domain.StatusForEventState(req.Status)
	httpx.WriteJSON(w, http.StatusOK, dto.NewUpdateResponse(req.EventID, status, n))
}

// reconcile liquida apostas PENDING de eventos que o event-service já finalizou
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	rep, err := s.coord.ReconcilePending(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.events.ListEvents(r.Context())
	if err != nil {
		s.log.Error("list events from event service", zap.Error(err))
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, evs)
}
