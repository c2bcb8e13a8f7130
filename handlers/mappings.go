package handlers

import (
	"net/http"

	"flight-price-api/services"

	"github.com/gin-gonic/gin"
)

type MappingsHandler struct {
	mappings *services.MappingTable
}

func NewMappingsHandler(mappings *services.MappingTable) *MappingsHandler {
	return &MappingsHandler{mappings: mappings}
}

// GetInverseMappings handles GET /get_inverse_mappings: the full code->label
// table the dashboard uses to decode encoded columns.
func (h *MappingsHandler) GetInverseMappings(c *gin.Context) {
	c.JSON(http.StatusOK, h.mappings.InverseMappings())
}
