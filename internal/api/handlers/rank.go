package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/lethphd/bayarea-urbansim/internal/api/models"
	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/data"
	"github.com/lethphd/bayarea-urbansim/internal/feasibility"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
	"github.com/lethphd/bayarea-urbansim/internal/proforma"
)

// RankHandler produces a one-shot feasibility ranking without running the
// development or equilibration steps.
type RankHandler struct {
	Cfg     *config.Config
	DataDir string
}

func NewRankHandler(cfg *config.Config, dataDir string) *RankHandler {
	return &RankHandler{Cfg: cfg, DataDir: dataDir}
}

// RankParcels handles GET /api/v1/rank.
func (h *RankHandler) RankParcels(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}
	scenario := req.Scenario
	if scenario == "" {
		scenario = h.Cfg.DefaultScenario
	}

	rules, err := policy.Resolve(policy.SettingsFromConfig(h.Cfg, scenario), scenario)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIGURATION", Message: err.Error()},
		})
		return
	}

	parcels, err := data.LoadParcels(filepath.Join(h.DataDir, filepath.Base(req.ParcelsFile)))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_PARCELS", Message: err.Error()},
		})
		return
	}
	subs, err := data.LoadSubmarkets(filepath.Join(h.DataDir, filepath.Base(req.SubmarketsFile)))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_SUBMARKETS", Message: err.Error()},
		})
		return
	}
	byZone := map[int]*model.Submarket{}
	for _, s := range subs {
		byZone[s.Zone] = s
	}

	engine := &feasibility.Engine{
		Eval: &proforma.Evaluator{
			Proforma:      h.Cfg.Proforma,
			Feasibility:   h.Cfg.Feasibility,
			CostShifters:  h.Cfg.CostShifters,
			PriceShifters: h.Cfg.PriceShifters,
		},
		DenyMaxDensityTier: h.Cfg.Feasibility.DenyMaxDensityTier,
		AveSqftPerUnit:     h.Cfg.Proforma.AveSqftPerUnit,
		MinUnitSize:        h.Cfg.ResidentialDeveloper.MinUnitSize,
	}
	ranked := engine.Rank(parcels, byZone, rules, nil, h.Cfg.StaticParcelSet())

	limit := req.Limit
	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	rankings := make([]models.Ranking, 0, limit)
	for i, sp := range ranked[:limit] {
		rankings = append(rankings, models.Ranking{
			Rank:         i + 1,
			ParcelID:     sp.Parcel.ID,
			Jurisdiction: sp.Parcel.Jurisdiction,
			Form:         string(sp.Result.Candidate.Form),
			Units:        sp.Result.Candidate.Units,
			Sqft:         sp.Result.Candidate.Sqft,
			Cost:         sp.Result.Candidate.Cost,
			Profit:       sp.Result.Profit,
			Score:        sp.Result.Score,
		})
	}
	c.JSON(http.StatusOK, models.RankResponse{Scenario: scenario, Rankings: rankings})
}
