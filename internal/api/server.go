package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dialsched/internal/auth"
	"github.com/dialsched/internal/database"
	"github.com/dialsched/internal/executor"
	"github.com/dialsched/internal/models"
	"github.com/dialsched/internal/schedule"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Server struct {
	manager *schedule.Manager
	ledger  *executor.Ledger
	router  *gin.Engine
}

func NewServer(manager *schedule.Manager, ledger *executor.Ledger) *Server {
	server := &Server{
		manager: manager,
		ledger:  ledger,
		router:  gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)
	s.router.POST("/api/v1/auth/register", s.register)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware())

	schedules := api.Group("/schedules")
	{
		schedules.GET("", s.listSchedules)
		schedules.GET("/upcoming", s.listUpcoming)
		schedules.GET("/:id", s.getSchedule)
		schedules.GET("/:id/executions", s.listExecutions)
		schedules.POST("", auth.RequireRole(models.RoleAdmin, models.RoleOperator), s.createSchedule)
		schedules.PUT("/:id", auth.RequireRole(models.RoleAdmin, models.RoleOperator), s.updateSchedule)
		schedules.DELETE("/:id", auth.RequireRole(models.RoleAdmin, models.RoleOperator), s.deleteSchedule)
	}

	api.GET("/occurrences", s.listOccurrences)
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func (s *Server) listSchedules(c *gin.Context) {
	var typeFilter *models.ScheduleType
	if v := c.Query("type"); v != "" {
		st := models.ScheduleType(v)
		if st != models.ScheduleTypeList && st != models.ScheduleTypeCampaign {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule type"})
			return
		}
		typeFilter = &st
	}

	schedules, err := s.manager.ListSchedules(typeFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (s *Server) getSchedule(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	sched, err := s.manager.GetSchedule(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (s *Server) createSchedule(c *gin.Context) {
	var sched models.Schedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.manager.CreateSchedule(&sched); err != nil {
		status := http.StatusInternalServerError
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (s *Server) updateSchedule(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	var sched models.Schedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sched.ID = id

	if err := s.manager.UpdateSchedule(&sched); err != nil {
		var verr *schedule.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (s *Server) deleteSchedule(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	if err := s.manager.DeleteSchedule(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted successfully"})
}

func (s *Server) listUpcoming(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = l
	}

	upcoming, err := s.manager.ListUpcoming(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, upcoming)
}

func (s *Server) listOccurrences(c *gin.Context) {
	start, err := time.ParseInLocation(dateLayout, c.Query("start"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.ParseInLocation(dateLayout, c.Query("end"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, expected YYYY-MM-DD"})
		return
	}

	result, err := s.manager.ListOccurrences(start, end)
	if err != nil {
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listExecutions(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	execs, err := s.ledger.ListBySchedule(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, execs)
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", loginReq.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// register creates a new viewer account; the very first account becomes the
// admin so a fresh install can bootstrap itself.
func (s *Server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check existing users"})
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.RoleViewer,
		IsActive: true,
	}
	if count == 0 {
		user.Role = models.RoleAdmin
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	if err := db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
