package handler

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"donation-flow/internal/model"
)

// CatalogHandler serves the fixed mission catalog.
type CatalogHandler struct{}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

type ListMissionsOutput struct {
	Body model.MissionListResponse
}

type GetMissionInput struct {
	Slug string `path:"slug" doc:"Mission slug" example:"ocean"`
}

type GetMissionOutput struct {
	Body model.Mission
}

// RegisterRoutes registers the catalog routes with the huma API.
func (h *CatalogHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-missions",
		Method:      http.MethodGet,
		Path:        "/api/v1/missions",
		Summary:     "List missions",
		Description: "The six conservation missions in display order.",
		Tags:        []string{"missions"},
	}, h.ListMissions)

	huma.Register(api, huma.Operation{
		OperationID: "get-mission",
		Method:      http.MethodGet,
		Path:        "/api/v1/missions/{slug}",
		Summary:     "Get a mission",
		Tags:        []string{"missions"},
	}, h.GetMission)
}

func (h *CatalogHandler) ListMissions(ctx context.Context, _ *struct{}) (*ListMissionsOutput, error) {
	missions := slices.Clone(model.Missions)
	return &ListMissionsOutput{
		Body: model.MissionListResponse{Missions: missions, Count: len(missions)},
	}, nil
}

func (h *CatalogHandler) GetMission(ctx context.Context, input *GetMissionInput) (*GetMissionOutput, error) {
	m, ok := model.MissionBySlug(model.MissionSlug(input.Slug))
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("mission %q not found", input.Slug))
	}
	return &GetMissionOutput{Body: m}, nil
}
