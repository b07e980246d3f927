package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/herculanodebiasi/funcionarios/internal/domain"
	"github.com/herculanodebiasi/funcionarios/internal/service"
)

const resourceRoot = "/api/funcionarios"

var (
	defaultMinSalary = decimal.Zero
	defaultMaxSalary = decimal.New(9999999999, 0)
)

// Handler wires HTTP routes to the employee service.
type Handler struct {
	employees service.EmployeeService
	logger    *logrus.Logger
	cors      CORSOptions
	registry  *prometheus.Registry
	metrics   *metrics
}

func NewHandler(employees service.EmployeeService, logger *logrus.Logger, cors CORSOptions, registry *prometheus.Registry) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Handler{
		employees: employees,
		logger:    logger,
		cors:      cors,
		registry:  registry,
		metrics:   newMetrics(registry),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), h.metrics.middleware(), corsMiddleware(h.cors))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	api := router.Group(resourceRoot)
	{
		api.GET("", h.listEmployees)
		api.POST("", h.createEmployee)
		api.GET("/buscar", h.searchByName)
		api.GET("/faixa-salarial", h.searchBySalaryRange)
		api.GET("/dependentes", h.searchByDependents)
		api.GET("/xml/:id", h.getEmployeeXML)
		api.GET("/:id", h.getEmployee)
		api.PUT("/:id", h.updateEmployee)
		api.DELETE("/:id", h.deleteEmployee)
	}
}

func (h *Handler) listEmployees(c *gin.Context) {
	employees, err := h.employees.ListEmployees(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	respondList(c, employees)
}

func (h *Handler) getEmployee(c *gin.Context) {
	id, ok := parseID(c, c.JSON)
	if !ok {
		return
	}

	employee, err := h.employees.GetEmployee(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, employeeToResponse(*employee))
}

func (h *Handler) getEmployeeXML(c *gin.Context) {
	if c.GetHeader("Accept") == "" || c.NegotiateFormat(gin.MIMEXML, gin.MIMEXML2) == "" {
		c.XML(http.StatusNotAcceptable, gin.H{"error": "this resource is only available as application/xml"})
		return
	}

	id, ok := parseID(c, c.XML)
	if !ok {
		return
	}

	employee, err := h.employees.GetEmployee(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			c.XML(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("get employee as xml")
		c.XML(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.XML(http.StatusOK, employeeToResponse(*employee))
}

func (h *Handler) searchByName(c *gin.Context) {
	name, ok := c.GetQuery("nome")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter nome is required"})
		return
	}

	employees, err := h.employees.SearchByName(c.Request.Context(), name)
	if err != nil {
		h.internalError(c, err)
		return
	}
	respondList(c, employees)
}

func (h *Handler) searchBySalaryRange(c *gin.Context) {
	minSalary, err := decimalQuery(c, "minimo", defaultMinSalary)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	maxSalary, err := decimalQuery(c, "maximo", defaultMaxSalary)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employees, err := h.employees.SearchBySalaryRange(c.Request.Context(), minSalary, maxSalary)
	if err != nil {
		h.internalError(c, err)
		return
	}
	respondList(c, employees)
}

func (h *Handler) searchByDependents(c *gin.Context) {
	threshold := 0
	if raw := strings.TrimSpace(c.Query("numDep")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid numDep"})
			return
		}
		threshold = v
	}

	employees, err := h.employees.SearchByDependents(c.Request.Context(), threshold)
	if err != nil {
		h.internalError(c, err)
		return
	}
	respondList(c, employees)
}

func (h *Handler) createEmployee(c *gin.Context) {
	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	employee, err := req.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.employees.CreateEmployee(c.Request.Context(), employee)
	if err != nil {
		if errors.Is(err, domain.ErrSalaryOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", resourceRoot, created.ID))
	c.Status(http.StatusCreated)
}

func (h *Handler) updateEmployee(c *gin.Context) {
	id, ok := parseID(c, c.JSON)
	if !ok {
		return
	}

	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	employee, err := req.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.employees.UpdateEmployee(c.Request.Context(), id, employee)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, domain.ErrSalaryOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, employeeToResponse(*updated))
}

func (h *Handler) deleteEmployee(c *gin.Context) {
	id, ok := parseID(c, c.JSON)
	if !ok {
		return
	}

	if err := h.employees.DeleteEmployee(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("handle employee request")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func respondList(c *gin.Context, employees []domain.Employee) {
	if len(employees) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]EmployeeResponse, len(employees))
	for i := range employees {
		resp[i] = employeeToResponse(employees[i])
	}
	c.JSON(http.StatusOK, resp)
}

// parseID reads the :id path parameter and renders a 400 with render when it is not a positive integer.
func parseID(c *gin.Context, render func(code int, obj any)) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		render(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return 0, false
	}
	return id, true
}

func decimalQuery(c *gin.Context, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}
