// Package api exposes the operator-facing HTTP surface: escalation
// history, the manual test trigger, assessment submission and the
// WebSocket live feed.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/steadypath/steadypath/internal/assessment"
	"github.com/steadypath/steadypath/internal/escalation"
	"github.com/steadypath/steadypath/internal/ws"
	"github.com/steadypath/steadypath/pkg/models"
)

// Server represents the API server
type Server struct {
	router      *gin.Engine
	logger      *zap.Logger
	escalations escalation.EscalationService
	feed        *ws.Feed
	validate    *validator.Validate
}

// NewServer creates a new API server with injected service interfaces.
func NewServer(logger *zap.Logger, escalations escalation.EscalationService, feed *ws.Feed) *Server {
	server := &Server{
		logger:      logger,
		escalations: escalations,
		feed:        feed,
		validate:    validator.New(),
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Router returns the Gin engine so callers can mount it on an http.Server.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "name": "SteadyPath escalation API"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws/escalations", func(c *gin.Context) {
		s.feed.Handle(c.Writer, c.Request)
	})

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/escalations", s.listEscalations)
		v1.GET("/escalations/:id", s.getEscalation)
		v1.POST("/escalations/trigger", s.triggerEscalation)
		v1.POST("/assessments", s.submitAssessment)
	}
}

func (s *Server) listEscalations(c *gin.Context) {
	records, err := s.escalations.GetAllNotifications(c.Request.Context())
	if err != nil {
		s.logger.Error("List escalations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list escalations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"escalations": records, "count": len(records)})
}

func (s *Server) getEscalation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid escalation id"})
		return
	}
	record, err := s.escalations.GetNotification(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "escalation not found"})
			return
		}
		s.logger.Error("Get escalation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load escalation"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// TriggerRequest is the manual operator test trigger payload. Answers are
// optional; a synthetic maximum-risk answer set is substituted when they
// are omitted.
type TriggerRequest struct {
	SubjectID   string                `json:"subject_id" validate:"required"`
	SubjectName string                `json:"subject_name" validate:"required"`
	Answers     []models.AnswerRecord `json:"answers"`
}

func (s *Server) triggerEscalation(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers := req.Answers
	if len(answers) == 0 {
		answers = syntheticAnswers()
	}

	record := s.escalations.SendEmergencyAlert(c.Request.Context(), req.SubjectID, req.SubjectName, answers)
	c.JSON(http.StatusCreated, record)
}

// AssessmentRequest is the assessment-submission collaborator payload.
type AssessmentRequest struct {
	SubjectID   string                `json:"subject_id" validate:"required"`
	SubjectName string                `json:"subject_name" validate:"required"`
	Answers     []models.AnswerRecord `json:"answers" validate:"required,min=1"`
}

// AssessmentResponse carries the computed tier and, when the submission
// escalated, the resulting record id.
type AssessmentResponse struct {
	RiskLevel    string     `json:"risk_level"`
	Score        int        `json:"score"`
	Escalated    bool       `json:"escalated"`
	EscalationID *uuid.UUID `json:"escalation_id,omitempty"`
}

func (s *Server) submitAssessment(c *gin.Context) {
	var req AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	score := assessment.ScoreAnswers(req.Answers)
	tier := assessment.ClassifyScore(score)
	resp := AssessmentResponse{RiskLevel: tier, Score: score}

	if tier == assessment.TierHigh {
		record := s.escalations.SendEmergencyAlert(c.Request.Context(), req.SubjectID, req.SubjectName, req.Answers)
		resp.Escalated = true
		resp.EscalationID = &record.ID
	}
	c.JSON(http.StatusOK, resp)
}

// syntheticAnswers builds a maximum-risk answer set for operator test
// triggers.
func syntheticAnswers() []models.AnswerRecord {
	answers := make([]models.AnswerRecord, assessment.QuestionCount)
	for i := range answers {
		answers[i] = models.AnswerRecord{QuestionID: i, SelectedOption: 4}
	}
	return answers
}
