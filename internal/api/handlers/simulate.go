package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/lethphd/bayarea-urbansim/internal/api/models"
	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/data"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/persistence"
	"github.com/lethphd/bayarea-urbansim/internal/sim"
)

// SimulateHandler runs full multi-year simulations.
type SimulateHandler struct {
	Cfg     *config.Config
	DataDir string
	DB      *persistence.DB // nil disables persistence
}

func NewSimulateHandler(cfg *config.Config, dataDir string, db *persistence.DB) *SimulateHandler {
	return &SimulateHandler{Cfg: cfg, DataDir: dataDir, DB: db}
}

// RunSimulation handles POST /api/v1/simulate.
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	parcels, submarkets, ok := h.loadTables(c, req.ParcelsFile, req.SubmarketsFile)
	if !ok {
		return
	}

	engine, err := sim.New(h.Cfg, req.Scenario, parcels, submarkets)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIGURATION", Message: err.Error()},
		})
		return
	}

	res, err := engine.Run(req.StartYear, req.Years)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SIMULATION_FAILED", Message: err.Error()},
		})
		return
	}

	resp := models.SimulateResponse{
		Scenario:   res.Scenario,
		Ledger:     res.Ledger,
		Events:     res.Events,
		Submarkets: res.Submarkets,
	}
	if req.Persist && h.DB != nil {
		runID, err := h.DB.SaveRun(res, req.StartYear, req.Years)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "PERSIST_FAILED", Message: err.Error()},
			})
			return
		}
		resp.RunID = runID
	}
	c.JSON(http.StatusOK, resp)
}

// GetRunEvents handles GET /api/v1/runs/:id/events.
func (h *SimulateHandler) GetRunEvents(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "PERSISTENCE_DISABLED", Message: "server started without a database"},
		})
		return
	}
	rows, err := h.DB.Events(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "QUERY_FAILED", Message: err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

func (h *SimulateHandler) loadTables(c *gin.Context, parcelsFile, submarketsFile string) ([]*model.Parcel, []*model.Submarket, bool) {
	parcels, err := data.LoadParcels(filepath.Join(h.DataDir, filepath.Base(parcelsFile)))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_PARCELS", Message: err.Error()},
		})
		return nil, nil, false
	}
	submarkets, err := data.LoadSubmarkets(filepath.Join(h.DataDir, filepath.Base(submarketsFile)))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_SUBMARKETS", Message: err.Error()},
		})
		return nil, nil, false
	}
	return parcels, submarkets, true
}
