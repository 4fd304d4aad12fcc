package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/paybridge/internal/platform/catalog"
)

func (s *Server) ListPlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": catalog.Platforms()})
}
