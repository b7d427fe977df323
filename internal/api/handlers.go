package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// Request bodies larger than this are rejected; it leaves room for a photo
const maxBodyBytes = 15 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type entryRequest struct {
	Text string `json:"text"`
	// Image is base64 encoded in JSON
	Image []byte `json:"image,omitempty"`
}

type weightRequest struct {
	Weight *float64 `json:"weight"`
}

type skipRequest struct {
	Skipped bool `json:"skipped"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type recommendationRequest struct {
	Options string `json:"options"`
}

type reportResponse struct {
	Report string `json:"report"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: apperrors.UserMessage(err)}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case apperrors.ErrorTypeConflict:
			status = http.StatusConflict
		case apperrors.ErrorTypeExternal:
			status = http.StatusBadGateway
		case apperrors.ErrorTypeTimeout:
			status = http.StatusGatewayTimeout
		}
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, apperrors.NewValidationError("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func session(r *http.Request) string {
	if s := r.Header.Get(SessionHeader); s != "" {
		return s
	}
	return defaultSession
}

// dateVar validates the {date} path segment
func dateVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := mux.Vars(r)["date"]
	if _, err := domain.ParseDate(date); err != nil {
		writeError(w, apperrors.NewValidationError("date must be YYYY-MM-DD"))
		return "", false
	}
	return date, true
}

func slotVar(r *http.Request) domain.MealSlot {
	return domain.MealSlot(mux.Vars(r)["slot"])
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.diary.Summary(date))
}

func (s *Server) getMeal(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	meal, found := s.diary.Day(date).Meal(slotVar(r))
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown meal slot"})
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) postFocus(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	slot := slotVar(r)
	if !slot.Valid() {
		writeError(w, apperrors.NewValidationError("unknown meal slot"))
		return
	}
	s.diary.Focus(session(r), date, slot)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var req entryRequest
	if !decode(w, r, &req) {
		return
	}
	meal, err := s.diary.LogFood(r.Context(), session(r), date, slotVar(r), req.Text, req.Image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) putWeight(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var req weightRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Weight == nil {
		writeError(w, apperrors.NewValidationError("weight is required"))
		return
	}
	meal, err := s.diary.UpdateItemWeight(r.Context(), date, slotVar(r), mux.Vars(r)["id"], *req.Weight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) putItem(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var item domain.Ingredient
	if !decode(w, r, &item) {
		return
	}
	item.ID = mux.Vars(r)["id"]
	meal, err := s.diary.UpdateItem(r.Context(), date, slotVar(r), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	meal, err := s.diary.RemoveItem(r.Context(), date, slotVar(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) clearMeal(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	meal, err := s.diary.ClearMeal(r.Context(), date, slotVar(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) putSkip(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var req skipRequest
	if !decode(w, r, &req) {
		return
	}
	meal, err := s.diary.SkipMeal(r.Context(), date, slotVar(r), req.Skipped)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) putMetrics(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var req domain.BodyMetrics
	if !decode(w, r, &req) {
		return
	}
	log, err := s.diary.SetBodyMetrics(r.Context(), date, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) putNote(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}
	log, err := s.diary.SetNote(r.Context(), date, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) postRecommendation(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	var req recommendationRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.diary.Recommend(r.Context(), session(r), date, slotVar(r), req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getDailyReport(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Report: s.diary.DailyReport(r.Context(), date)})
}

func (s *Server) getWeeklyReport(w http.ResponseWriter, r *http.Request) {
	date, ok := dateVar(w, r)
	if !ok {
		return
	}
	kind := domain.ParseReportKind(r.URL.Query().Get("kind"))
	writeJSON(w, http.StatusOK, reportResponse{Report: s.diary.WeeklyReport(r.Context(), date, kind)})
}

func (s *Server) getGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.diary.Goals())
}

func (s *Server) putGoals(w http.ResponseWriter, r *http.Request) {
	goals := s.diary.Goals()
	if !decode(w, r, &goals) {
		return
	}
	if err := s.diary.SetGoals(goals); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}
