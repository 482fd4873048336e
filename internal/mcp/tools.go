package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	errUnknownMachine = errors.New("unknown machine")
	errUnknownMode    = errors.New("unknown training mode")
)

// resolveMachine finds a machine by numeric ID or by case-insensitive name.
func (h *handlers) resolveMachine(ctx context.Context, ref string) (*models.Machine, error) {
	machines, err := h.ds.ListMachines(ctx)
	if err != nil {
		return nil, err
	}
	id, idErr := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	for i := range machines {
		m := &machines[i]
		if idErr == nil && m.ID == id {
			return m, nil
		}
		if strings.EqualFold(m.Name, strings.TrimSpace(ref)) || strings.EqualFold(m.EnglishName, strings.TrimSpace(ref)) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w %q", errUnknownMachine, ref)
}

// resolveMode finds a training mode by numeric ID, code or localized name.
func (h *handlers) resolveMode(ctx context.Context, ref string) (*models.TrainingMode, error) {
	modes, err := h.ds.ListTrainingModes(ctx)
	if err != nil {
		return nil, err
	}
	id, idErr := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	code, _ := models.NormalizeModeCode(ref)
	for i := range modes {
		m := &modes[i]
		if (idErr == nil && m.ID == id) || m.Code == code {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w %q", errUnknownMode, ref)
}

// toolError turns a data source error into a tool result the model can act on.
func (h *handlers) toolError(tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, errUnknownMachine) || errors.Is(err, errUnknownMode) {
		return mcp.NewToolResultError(err.Error())
	}
	switch workout.Reason(err) {
	case workout.ReasonValidation, workout.ReasonNotFound, workout.ReasonConflict:
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("query failed: " + err.Error())
}

// --- Tool definitions ---

var toolGetRecommendation = mcp.NewTool("get_recommendation",
	mcp.WithDescription("Next-session prescription for one machine in one training mode: working weight (kg), sets, reps and rest in seconds. Requires that the machine was trained in that mode before."),
	mcp.WithString("machine", mcp.Required(), mcp.Description("Machine ID or name (e.g. 'Chest Press')")),
	mcp.WithString("mode", mcp.Required(), mcp.Description("Training mode ID, code or name (e.g. strength, hypertrophy, cutting, endurance, powerlifting)")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Retrieve one workout session with its exercises and sets, including planned vs actual reps, tonnage and estimated 1RM."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List workout sessions, newest first, without their exercises. Returns one page and whether more sessions exist."),
	mcp.WithString("status", mcp.Description("Filter by status"), mcp.Enum("planned", "in_progress", "completed", "cancelled", "suspended")),
	mcp.WithNumber("limit", mcp.Description("Page size. Defaults to 20.")),
	mcp.WithNumber("offset", mcp.Description("Number of sessions to skip. Defaults to 0.")),
)

var toolGetProgressions = mcp.NewTool("get_progressions",
	mcp.WithDescription("Progression trackers: current working weight, sets, reps, success rate and total progression per machine and training mode."),
	mcp.WithString("machine", mcp.Description("Only trackers of this machine (ID or name)")),
)

var toolGetUserStats = mcp.NewTool("get_user_stats",
	mcp.WithDescription("Training statistics: completed sessions, total minutes, estimated calories, record weight, favorite machines and average progression."),
)

// --- Tool handlers ---

func (h *handlers) getRecommendation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	machineRef, err := req.RequireString("machine")
	if err != nil {
		return mcp.NewToolResultError("machine parameter is required"), nil
	}
	modeRef, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError("mode parameter is required"), nil
	}

	machine, err := h.resolveMachine(ctx, machineRef)
	if err != nil {
		return h.toolError("get_recommendation", err), nil
	}
	mode, err := h.resolveMode(ctx, modeRef)
	if err != nil {
		return h.toolError("get_recommendation", err), nil
	}

	rec, err := h.ds.GetRecommendation(ctx, UserIDFromContext(ctx), machine.ID, mode.ID)
	if err != nil {
		return h.toolError("get_recommendation", err), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"machine":        machine.Name,
		"mode":           mode.Code,
		"recommendation": rec,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil || id <= 0 {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	sess, err := h.ds.GetSession(ctx, int64(id))
	if err != nil {
		return h.toolError("get_session", err), nil
	}
	if sess.UserID != UserIDFromContext(ctx) {
		return mcp.NewToolResultError(fmt.Sprintf("session %d not found", id)), nil
	}

	result, err := mcp.NewToolResultJSON(sess)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := h.ds.ListSessions(ctx, workout.ListSessionsInput{
		UserID: UserIDFromContext(ctx),
		Status: models.SessionStatus(req.GetString("status", "")),
		Limit:  req.GetInt("limit", 0),
		Offset: req.GetInt("offset", 0),
	})
	if err != nil {
		return h.toolError("list_sessions", err), nil
	}

	result, err := mcp.NewToolResultJSON(page)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trackers, err := h.ds.ListTrackers(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("get_progressions", err), nil
	}

	if ref := req.GetString("machine", ""); ref != "" {
		machine, err := h.resolveMachine(ctx, ref)
		if err != nil {
			return h.toolError("get_progressions", err), nil
		}
		filtered := make([]models.ProgressionTracker, 0, len(trackers))
		for _, t := range trackers {
			if t.MachineID == machine.ID {
				filtered = append(filtered, t)
			}
		}
		trackers = filtered
	}

	result, err := mcp.NewToolResultJSON(trackers)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getUserStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.UserStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("get_user_stats", err), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
