package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
)

// Tools exposed on POST /mcp
const (
	ToolGetDay       = "get_day"
	ToolLogFood      = "log_food"
	ToolRecommend    = "recommend_meal"
	ToolDailyReport  = "daily_report"
	ToolWeeklyReport = "weekly_report"
	ToolSetMetrics   = "set_body_metrics"
)

type dayParams struct {
	Date string `json:"date" description:"Day to read (YYYY-MM-DD)"`
}

type logFoodParams struct {
	Date        string `json:"date" description:"Day of the meal (YYYY-MM-DD)"`
	Slot        string `json:"slot" description:"breakfast, lunch, dinner or snack"`
	Description string `json:"description" description:"What was eaten"`
}

type recommendParams struct {
	Date    string `json:"date" description:"Day of the meal (YYYY-MM-DD)"`
	Slot    string `json:"slot" description:"breakfast, lunch, dinner or snack"`
	Options string `json:"options" description:"Candidates separated by commas"`
}

type weeklyParams struct {
	Date string `json:"date" description:"Last day of the week (YYYY-MM-DD)"`
	Kind string `json:"kind,omitempty" description:"nutrition or fat_loss"`
}

type metricsParams struct {
	Date string `json:"date" description:"Day of the measurement (YYYY-MM-DD)"`
	domain.BodyMetrics
}

// extractParams converts the loosely typed tool arguments into target
func extractParams(req *protocol.CallToolRequest, target any) error {
	data, err := json.Marshal(req.Arguments)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := json.Unmarshal(data, target); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func toolResult(data any) (*protocol.CallToolResult, error) {
	text, ok := data.(string)
	if !ok {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		text = string(raw)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}, nil
}

func validParamDate(date string) error {
	if _, err := domain.ParseDate(date); err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD")
	}
	return nil
}

// postMCP serves single tool calls over plain HTTP
func (s *Server) postMCP(w http.ResponseWriter, r *http.Request) {
	var req protocol.CallToolRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := s.callTool(r, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) callTool(r *http.Request, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	ctx := r.Context()
	switch req.Name {
	case ToolGetDay:
		var p dayParams
		if err := extractParams(req, &p); err != nil {
			return nil, err
		}
		if err := validParamDate(p.Date); err != nil {
			return nil, err
		}
		return toolResult(s.diary.Summary(p.Date))

	case ToolLogFood:
		var p logFoodParams
		if err := extractParams(req, &p); err != nil {
			return nil, err
		}
		meal, err := s.diary.LogFood(ctx, session(r), p.Date, domain.MealSlot(p.Slot), p.Description, nil)
		if err != nil {
			return nil, err
		}
		return toolResult(meal)

	case ToolRecommend:
		var p recommendParams
		if err := extractParams(req, &p); err != nil {
			return nil, err
		}
		rec, err := s.diary.Recommend(ctx, session(r), p.Date, domain.MealSlot(p.Slot), p.Options)
		if err != nil {
			return nil, err
		}
		return toolResult(rec)

	case ToolDailyReport:
		var p dayParams
		if err := extractParams(req, &p); err != nil {
			return nil, err
		}
		if err := validParamDate(p.Date); err != nil {
			return nil, err
		}
		return toolResult(s.diary.DailyReport(ctx, p.Date))

	case ToolWeeklyReport:
		var p weeklyParams
		if err := extractParams(req, &p); err != nil {
			return nil, err
		}
		if err := validParamDate(p.Date); err != nil {
			return nil, err
		}
		return toolResult(s.diary.WeeklyReport(ctx, p.Date, domain.ParseReportKind(p.Kind)))

	case ToolSetMetrics:
		var p metricsParams
		if err := extractParams(req, &p); err != nil {
			return nil, err
		}
		log, err := s.diary.SetBodyMetrics(ctx, p.Date, p.BodyMetrics)
		if err != nil {
			return nil, err
		}
		return toolResult(log.BodyMetrics)

	default:
		return nil, apperrors.New(apperrors.ErrorTypeValidation, "UNKNOWN_TOOL", fmt.Sprintf("unknown tool %q", req.Name))
	}
}
