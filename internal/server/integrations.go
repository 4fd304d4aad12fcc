package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
)

type saveIntegrationRequest struct {
	Config   integrationdomain.Credentials `json:"config"`
	Enabled  bool                          `json:"enabled"`
	Sandbox  *bool                         `json:"sandbox"`
	Settings *integrationdomain.Settings   `json:"settings"`
}

type registerWebhookRequest struct {
	URL string `json:"url"`
}

func (s *Server) ListIntegrations(c *gin.Context) {
	configs, err := s.configs.GetAllConfigs(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]integrationdomain.PlatformConfig, 0, len(configs))
	for i := range configs {
		resp = append(resp, redact(configs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetIntegration(c *gin.Context) {
	cfg, err := s.configs.GetConfig(c.Request.Context(), currentUserID(c), c.Param("platform"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redact(*cfg)})
}

// SaveIntegration replaces the whole integration record.
func (s *Server) SaveIntegration(c *gin.Context) {
	var req saveIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sandbox := true
	if req.Sandbox != nil {
		sandbox = *req.Sandbox
	}
	cfg := integrationdomain.PlatformConfig{
		UserID:      currentUserID(c),
		PlatformID:  c.Param("platform"),
		Credentials: req.Config,
		Enabled:     req.Enabled,
		Sandbox:     sandbox,
	}
	if req.Settings != nil {
		cfg.Settings = *req.Settings
	}

	saved, err := s.configs.SaveConfig(c.Request.Context(), cfg)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redact(*saved)})
}

// UpdateIntegration writes only the fields present in the body, so a toggle
// never touches stored credentials.
func (s *Server) UpdateIntegration(c *gin.Context) {
	var patch integrationdomain.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		if errors.Is(err, io.EOF) {
			AbortWithError(c, integrationdomain.ErrEmptyPatch)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.configs.UpdateConfig(c.Request.Context(), currentUserID(c), c.Param("platform"), patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redact(*updated)})
}

func (s *Server) SyncIntegration(c *gin.Context) {
	res, err := s.syncer.Sync(c.Request.Context(), currentUserID(c), c.Param("platform"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (s *Server) RegisterIntegrationWebhook(c *gin.Context) {
	var req registerWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	url, err := s.syncer.RegisterWebhook(c.Request.Context(), currentUserID(c), c.Param("platform"), strings.TrimSpace(req.URL))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}

func redact(cfg integrationdomain.PlatformConfig) integrationdomain.PlatformConfig {
	cfg.Credentials = cfg.Credentials.Redacted()
	return cfg
}
