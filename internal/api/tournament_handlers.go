// internal/api/tournament_handlers.go
// Tournament lifecycle HTTP handlers: everything past creation happens over
// the sync-chain websocket, not REST.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-core/internal/hall"
	"tournament-core/internal/ids"
	"tournament-core/internal/settings"
	"tournament-core/internal/tournament"
	"tournament-core/internal/utils"
)

// HandleCreateTournament creates a brand-new tournament and spawns its
// gathering, with the requesting account as its first admin.
func HandleCreateTournament(h *hall.Hall) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("account_id")
		accountID, ok := raw.(ids.AccountID)
		if !exists || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		var req struct {
			Name   string `json:"name" binding:"required"`
			Preset string `json:"preset"`
			Format string `json:"format"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
			return
		}
		if err := utils.ValidateTournamentName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		format := settings.Format(req.Format)
		if format == "" {
			format = "standard"
		}
		seed := tournament.Seed{
			Name:   req.Name,
			Preset: parsePreset(req.Preset),
			Format: format,
		}
		tournamentID := ids.NewTournamentID()

		if _, err := h.Create(tournamentID, seed, accountID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create tournament"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"tournament_id": tournamentID.String()})
	}
}

func parsePreset(s string) settings.PairingStyle {
	switch s {
	case "fluid":
		return settings.StyleFluid
	default:
		return settings.StyleSwiss
	}
}
