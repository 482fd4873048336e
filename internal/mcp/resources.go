package mcp

import (
	"context"
	"encoding/json"

	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

const recentSessionsLimit = 20

func (h *handlers) machineCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	machines, err := h.ds.ListMachines(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, machines)
}

func (h *handlers) trainingModes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	modes, err := h.ds.ListTrainingModes(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, modes)
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	page, err := h.ds.ListSessions(ctx, workout.ListSessionsInput{
		UserID: UserIDFromContext(ctx),
		Limit:  recentSessionsLimit,
	})
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, page.Sessions)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
