// Package api exposes the reconciliation service over HTTP. Every route runs
// inside one cartório scope, taken from the X-Cartorio-ID header.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"conciliador/internal/models"
	"conciliador/internal/service"
	apperrors "conciliador/pkg/errors"
	"conciliador/pkg/logger"
)

// cartorioHeader carries the tenant scope on every request.
const cartorioHeader = "X-Cartorio-ID"

// Server is the HTTP surface over the reconciliation service.
type Server struct {
	svc *service.Conciliador
	log logger.Logger
}

// NewServer creates the HTTP server.
func NewServer(svc *service.Conciliador) *Server {
	return &Server{
		svc: svc,
		log: logger.WithComponent("api"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", cartorioHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api", s.requireCartorio)
	{
		api.GET("/extrato-itens", s.listExtratoItens)
		api.GET("/extrato-itens/:id/sugestoes", s.getSugestoes)
		api.GET("/lancamentos", s.listLancamentos)
		api.GET("/sugestoes", s.getSugestoesLote)

		api.GET("/conciliacoes", s.listConciliacoes)
		api.GET("/conciliacoes/:id", s.getConciliacao)
		api.POST("/conciliacoes", s.postConciliacao)
		api.DELETE("/conciliacoes/:id", s.deleteConciliacao)
		api.POST("/conciliacoes/auto", s.postAutoConciliar)

		api.GET("/stats", s.getStats)
		api.GET("/fechamento", s.getFechamento)
	}

	return router
}

// Run starts the server on the given address, blocking until it stops.
func (s *Server) Run(addr string) error {
	s.log.WithField("addr", addr).Info("http server starting")
	return s.Router().Run(addr)
}

// requireCartorio rejects requests without a tenant scope.
func (s *Server) requireCartorio(c *gin.Context) {
	if c.GetHeader(cartorioHeader) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "missing " + cartorioHeader + " header",
		})
		return
	}
	c.Next()
}

func cartorioID(c *gin.Context) string {
	return c.GetHeader(cartorioHeader)
}

// filtrosFromQuery builds the record filter from query parameters.
func filtrosFromQuery(c *gin.Context) (models.ConciliacaoFiltros, error) {
	filtros := models.ConciliacaoFiltros{
		CartorioID: cartorioID(c),
		ContaID:    c.Query("conta_id"),
		ExtratoID:  c.Query("extrato_id"),
		Status:     models.StatusConciliacao(c.Query("status")),
		Direcao:    models.DirecaoExtrato(c.Query("direcao")),
	}

	if v := c.Query("data_inicio"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filtros, err
		}
		filtros.DataInicio = t
	}
	if v := c.Query("data_fim"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filtros, err
		}
		filtros.DataFim = t
	}
	return filtros, filtros.Validate()
}

// renderError maps service errors onto HTTP status codes.
func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsAlreadyLinked(err):
		status = http.StatusConflict
	case apperrors.IsInvalidScope(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsInvalidFilter(err):
		status = http.StatusBadRequest
	}

	body := gin.H{"error": err.Error()}
	if e, ok := apperrors.As(err); ok {
		body["code"] = e.Code
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	c.JSON(status, body)
}

func (s *Server) listExtratoItens(c *gin.Context) {
	filtros, err := filtrosFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	itens, err := s.svc.ListExtratoItens(c.Request.Context(), filtros)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, itens)
}

func (s *Server) listLancamentos(c *gin.Context) {
	filtros, err := filtrosFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lancamentos, err := s.svc.ListLancamentos(c.Request.Context(), filtros)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, lancamentos)
}

func (s *Server) getSugestoes(c *gin.Context) {
	sugestoes, err := s.svc.Sugerir(c.Request.Context(), cartorioID(c), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sugestoes)
}

func (s *Server) getSugestoesLote(c *gin.Context) {
	filtros, err := filtrosFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lote, err := s.svc.SugerirLote(c.Request.Context(), filtros)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, lote)
}

func (s *Server) listConciliacoes(c *gin.Context) {
	conciliacoes, err := s.svc.ListConciliacoes(c.Request.Context(), cartorioID(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, conciliacoes)
}

func (s *Server) getConciliacao(c *gin.Context) {
	conciliacao, err := s.svc.GetConciliacao(c.Request.Context(), cartorioID(c), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, conciliacao)
}

type vincularRequest struct {
	ExtratoItemID string `json:"extrato_item_id" binding:"required"`
	LancamentoID  string `json:"lancamento_id" binding:"required"`
	Nota          string `json:"nota"`
}

func (s *Server) postConciliacao(c *gin.Context) {
	var req vincularRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conciliacao, err := s.svc.Vincular(c.Request.Context(), cartorioID(c),
		req.ExtratoItemID, req.LancamentoID, req.Nota)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conciliacao)
}

func (s *Server) deleteConciliacao(c *gin.Context) {
	if err := s.svc.Desvincular(c.Request.Context(), cartorioID(c), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postAutoConciliar(c *gin.Context) {
	filtros, err := filtrosFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resultado, err := s.svc.AutoConciliar(c.Request.Context(), filtros)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultado)
}

func (s *Server) getStats(c *gin.Context) {
	filtros, err := filtrosFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stats, err := s.svc.Stats(c.Request.Context(), filtros)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getFechamento(c *gin.Context) {
	data, err := time.Parse("2006-01-02", c.Query("data"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data must be YYYY-MM-DD"})
		return
	}
	filtros, err := filtrosFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fechamento, err := s.svc.FechamentoDiario(c.Request.Context(), filtros, data)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, fechamento)
}
