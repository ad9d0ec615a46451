package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/store"
	"github.com/logguard-ai/logguard/internal/stream"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		JSONError(w, NewBadRequest("api_key is required"))
		return
	}

	if s.opts.APIKeyHash == "" || !CheckAPIKey(s.opts.APIKeyHash, req.APIKey) {
		JSONError(w, ErrUnauthorized)
		return
	}

	token, err := s.jwt.GenerateToken()
	if err != nil {
		s.log.WithError(err).Error("generate token")
		JSONError(w, ErrInternalServer)
		return
	}

	OK(w, LoginResponse{
		AccessToken: token,
		ExpiresIn:   s.jwt.TTLSeconds(),
		TokenType:   "Bearer",
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.opts.Monitor.Registry().List()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := alerts[:0:0]
		for _, a := range alerts {
			if string(a.Status) == status {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	OK(w, alerts)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	a, ok := s.opts.Monitor.Registry().Get(chi.URLParam(r, "id"))
	if !ok {
		JSONError(w, ErrNotFound)
		return
	}
	OK(w, a)
}

func (s *Server) handleAlertStats(w http.ResponseWriter, r *http.Request) {
	OK(w, s.opts.Monitor.Registry().Stats())
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	s.transitionAlert(w, r, models.StatusAcknowledged)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	s.transitionAlert(w, r, models.StatusResolved)
}

func (s *Server) transitionAlert(w http.ResponseWriter, r *http.Request, status models.AlertStatus) {
	id := chi.URLParam(r, "id")
	if _, ok := s.opts.Monitor.Registry().Get(id); !ok {
		JSONError(w, ErrNotFound)
		return
	}
	a, err := s.opts.Monitor.Registry().SetStatus(id, status)
	if err != nil {
		JSONError(w, NewConflict(err.Error()))
		return
	}
	OK(w, a)
}

func (s *Server) handleAlertResponses(w http.ResponseWriter, r *http.Request) {
	OK(w, s.opts.Correlator.ResponsesForAlert(chi.URLParam(r, "id")))
}

func (s *Server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Monitor.Start(s.runCtx); err != nil {
		if errors.Is(err, stream.ErrAlreadyRunning) {
			JSONError(w, NewConflict("monitoring already running"))
			return
		}
		JSONError(w, NewBadRequest(err.Error()))
		return
	}
	OK(w, s.opts.Monitor.Status())
}

func (s *Server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	s.opts.Monitor.Stop()
	OK(w, s.opts.Monitor.Status())
}

func (s *Server) handleMonitorStatus(w http.ResponseWriter, r *http.Request) {
	OK(w, s.opts.Monitor.Status())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.AppConfig
	err := s.opts.Store.Get(r.Context(), store.KeyConfig, &cfg)
	if errors.Is(err, store.ErrNotFound) {
		cfg = *models.DefaultAppConfig()
	} else if err != nil {
		s.log.WithError(err).Error("load config")
		JSONError(w, ErrInternalServer)
		return
	}
	OK(w, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		JSONError(w, NewBadRequest("invalid configuration payload"))
		return
	}
	if err := cfg.Validate(); err != nil {
		JSONError(w, NewBadRequest(err.Error()))
		return
	}

	if err := s.opts.Store.Put(r.Context(), store.KeyConfig, cfg); err != nil {
		s.log.WithError(err).Error("persist config")
		JSONError(w, ErrInternalServer)
		return
	}
	if s.opts.OnConfigUpdate != nil {
		s.opts.OnConfigUpdate(cfg)
	}
	OK(w, cfg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	OK(w, s.opts.Correlator.Incoming())
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	OK(w, s.opts.Correlator.Responses())
}

func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if s.opts.Recorder == nil {
		OK(w, nil)
		return
	}
	OK(w, s.opts.Recorder.Summary())
}

func (s *Server) handleNotificationStats(w http.ResponseWriter, r *http.Request) {
	OK(w, s.opts.Dispatcher.RateLimitStats())
}

type healthStatus struct {
	Status  string          `json:"status"`
	Version string          `json:"version,omitempty"`
	Checks  map[string]bool `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{}
	if s.opts.Store != nil {
		checks["store"] = s.opts.Store.Ping(r.Context()) == nil
	}
	if s.opts.Graylog != nil {
		checks["graylog"] = s.opts.Graylog.TestConnection(r.Context())
	}
	if s.opts.AI != nil {
		checks["ai"] = s.opts.AI.TestConnection(r.Context())
	}

	status := "ok"
	for _, ok := range checks {
		if !ok {
			status = "degraded"
		}
	}
	JSON(w, http.StatusOK, healthStatus{Status: status, Checks: checks})
}
