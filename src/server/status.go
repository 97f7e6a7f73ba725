package server

import (
	"fmt"
	"sort"

	"mse-harvester/src/engine"
	"mse-harvester/src/logger"
	"mse-harvester/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// StatusServer exposes the operational state of the harvester: liveness
// plus per-publisher sync progress and watermarks. It serves no market
// data.
// -----------------------------------------------------------------------------

type StatusServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Engine *engine.Engine
	router *gin.Engine
}

// -----------------------------------------------------------------------------

func NewStatusServer(cfg *models.MConfig, eng *engine.Engine, log *logger.Logger) *StatusServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusServer{
		Config: cfg,
		Logger: log,
		Engine: eng,
		router: gin.Default(),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *StatusServer) setupRoutes() {
	s.router.GET("/health", s.getHealth)
	s.router.GET("/status", s.getStatus)
}

// -----------------------------------------------------------------------------

func (s *StatusServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting status server on %s", addr)
	return s.router.Run(addr)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *StatusServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": s.Config.Name,
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getStatus(c *gin.Context) {
	statuses := s.Engine.Statuses()
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].PublisherCode < statuses[j].PublisherCode
	})

	c.JSON(200, gin.H{
		"last_run":   s.Engine.LastReport(),
		"publishers": statuses,
	})
}
