package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lethphd/bayarea-urbansim/internal/api/models"
	"github.com/lethphd/bayarea-urbansim/internal/config"
)

// ScenariosHandler lists the scenarios the configuration knows about.
type ScenariosHandler struct {
	Cfg *config.Config
}

func NewScenariosHandler(cfg *config.Config) *ScenariosHandler {
	return &ScenariosHandler{Cfg: cfg}
}

// ListScenarios handles GET /api/v1/scenarios.
func (h *ScenariosHandler) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, models.ScenariosResponse{
		Default:   h.Cfg.DefaultScenario,
		Scenarios: h.Cfg.Scenarios(),
	})
}
