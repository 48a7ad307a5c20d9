package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	apierrors "github.com/stwalsh4118/ptcalc/api/internal/errors"
	"github.com/stwalsh4118/ptcalc/api/internal/middleware"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
	"github.com/stwalsh4118/ptcalc/api/internal/services"
)

// CalculationHandler handles property tax and mutation calculation requests.
type CalculationHandler struct {
	estimation services.EstimationService
	demands    services.DemandService
	mutation   services.MutationService
}

// NewCalculationHandler creates a new CalculationHandler instance.
func NewCalculationHandler(
	estimation services.EstimationService,
	demands services.DemandService,
	mutation services.MutationService,
) *CalculationHandler {
	return &CalculationHandler{
		estimation: estimation,
		demands:    demands,
		mutation:   mutation,
	}
}

// CalculationRequest is the body of the estimate and calculate endpoints.
type CalculationRequest struct {
	CalculationCriteria []models.CalculationCriteria `json:"CalculationCriteria" binding:"required,min=1,dive"`
}

// MutationRequest is the body of the mutation endpoint.
type MutationRequest struct {
	MutationCriteria *models.MutationCriteria `json:"MutationCriteria" binding:"required"`
}

// EstimateResponse maps assessment number to its calculation.
type EstimateResponse struct {
	Calculations map[string]*models.Calculation `json:"calculations"`
}

// CalculateResponse carries the calculations and the demands raised for them.
type CalculateResponse struct {
	Calculations map[string]*models.Calculation `json:"calculations"`
	Demands      []models.Demand                `json:"demands"`
}

// MutationResponse carries the mutation fee calculation.
type MutationResponse struct {
	Calculation *models.Calculation `json:"calculation"`
}

// Estimate handles POST /api/v1/calculate/_estimate.
// It prices every criteria without raising demands or storing baselines.
func (h *CalculationHandler) Estimate(c *gin.Context) {
	var req CalculationRequest
	if !bindJSON(c, &req) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing estimate request", map[string]interface{}{
			"criteria": len(req.CalculationCriteria),
		})
	}

	calculations, err := h.estimation.EstimateAll(c.Request.Context(), req.CalculationCriteria)
	if err != nil {
		respondError(c, err, "Failed to estimate property tax")
		return
	}

	c.JSON(http.StatusOK, EstimateResponse{Calculations: calculations})
}

// Calculate handles POST /api/v1/calculate/_calculate.
// It estimates every criteria, then stores fresh baselines and raises demands.
func (h *CalculationHandler) Calculate(c *gin.Context) {
	var req CalculationRequest
	if !bindJSON(c, &req) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing calculate request", map[string]interface{}{
			"criteria": len(req.CalculationCriteria),
		})
	}

	result, err := h.demands.CalculateAndCreateDemand(c.Request.Context(), req.CalculationCriteria)
	if err != nil {
		respondError(c, err, "Failed to calculate property tax")
		return
	}

	c.JSON(http.StatusCreated, CalculateResponse{
		Calculations: result.Calculations,
		Demands:      result.Demands,
	})
}

// Mutation handles POST /api/v1/mutation/_calculate.
func (h *CalculationHandler) Mutation(c *gin.Context) {
	var req MutationRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.MutationCriteria.FeeAmount.IsNegative() {
		apierrors.BadRequest(c, "Mutation fee must not be negative", map[string]interface{}{
			"feeAmount": req.MutationCriteria.FeeAmount.String(),
		})
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing mutation request", map[string]interface{}{
			"tenant_id":              req.MutationCriteria.TenantID,
			"acknowledgement_number": req.MutationCriteria.Property.AcknowledgementNumber,
		})
	}

	calc, err := h.mutation.Calculate(c.Request.Context(), *req.MutationCriteria)
	if err != nil {
		respondError(c, err, "Failed to calculate mutation fee")
		return
	}

	c.JSON(http.StatusOK, MutationResponse{Calculation: calc})
}

// bindJSON binds and validates the request body, writing the error response on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

// respondError maps service errors onto the API error envelope.
func respondError(c *gin.Context, err error, message string) {
	var verr *calculator.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.CalculationValidationError(c, verr)
	case errors.Is(err, calculator.ErrDepreciatingAssessment):
		apierrors.DepreciatingAssessment(c, err.Error())
	case errors.Is(err, services.ErrDemandService):
		apierrors.DemandServiceError(c, err)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
