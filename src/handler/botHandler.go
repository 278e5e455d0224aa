package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/bot"
	"tradebotpro/src/model"
)

type botRegistry interface {
	Start(ctx context.Context, userID string, cfg model.BotConfig) error
	Stop(userID string) bool
	Status(userID string) model.StatusSnapshot
}

type configStore interface {
	Save(ctx context.Context, userID string, cfg model.BotConfig) error
	Load(ctx context.Context, userID string) (*model.BotConfig, error)
}

// botRequest is the envelope of the start/stop/save endpoints.
type botRequest struct {
	UserID string          `json:"userId"`
	Config model.BotConfig `json:"config"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// StartBotHandler launches (or replaces) the user's bot with the
// submitted configuration.
func StartBotHandler(registry botRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req botRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		if err := registry.Start(context.WithoutCancel(r.Context()), req.UserID, req.Config); err != nil {
			if isConfigError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.WithField("user_id", req.UserID).
				WithError(err).Error("failed to start bot")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Bot started"})
	}
}

// isConfigError separates caller mistakes from server faults.
func isConfigError(err error) bool {
	return errors.Is(err, model.ErrMissingCredentials) ||
		errors.Is(err, model.ErrInvalidMode) ||
		errors.Is(err, model.ErrNoSymbols) ||
		errors.Is(err, model.ErrInvalidBudget) ||
		errors.Is(err, bot.ErrUnknownStrategy)
}

// StopBotHandler halts the user's bot. Stopping a user with no
// running bot still succeeds.
func StopBotHandler(registry botRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req botRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		message := "No bot was running"
		if registry.Stop(req.UserID) {
			message = "Bot stopped"
		}
		writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: message})
	}
}

// BotStatusHandler reports the user's live stats. Unknown users get
// the inactive zero snapshot, not an error.
func BotStatusHandler(registry botRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		if userID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, registry.Status(userID))
	}
}

// SaveConfigHandler persists the submitted configuration without
// starting a bot.
func SaveConfigHandler(store configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req botRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}
		if err := req.Config.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := store.Save(r.Context(), req.UserID, req.Config); err != nil {
			logger.WithField("user_id", req.UserID).
				WithError(err).Error("failed to save bot config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Config saved"})
	}
}

type tradeLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Trade, error)
}

// TradeHistoryHandler returns the user's recently closed trades,
// newest first. An optional ?limit= caps the page size.
func TradeHistoryHandler(trades tradeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		if userID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		list, err := trades.ListByUser(r.Context(), userID, limit)
		if err != nil {
			logger.WithField("user_id", userID).
				WithError(err).Error("failed to list trade history")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Trade{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// LoadConfigHandler returns the user's saved configuration, 404 when
// none exists.
func LoadConfigHandler(store configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		if userID == "" {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		cfg, err := store.Load(r.Context(), userID)
		if err != nil {
			logger.WithField("user_id", userID).
				WithError(err).Error("failed to load bot config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if cfg == nil {
			http.Error(w, "no config found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}
