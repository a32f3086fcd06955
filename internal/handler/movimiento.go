package handler

import (
	"net/http"

	"cajaledger/internal/apierror"
	"cajaledger/internal/dto"
	"cajaledger/internal/middleware"
	"cajaledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MovimientoHandler struct{ svc service.MovimientoService }

func NewMovimientoHandler(svc service.MovimientoService) *MovimientoHandler {
	return &MovimientoHandler{svc: svc}
}

// Registrar godoc
// @Summary Registra un ingreso o egreso manual contra una sesión abierta
// @Tags movimientos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.RegistrarMovimientoRequest true "Movimiento manual"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 409 {object} apierror.APIError "sesión no abierta"
// @Router /v1/sesiones/{id}/movimientos [post]
func (h *MovimientoHandler) Registrar(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.RegistrarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Registrar(c.Request.Context(), sesionID, usuarioID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista todos los movimientos de una sesión (activos y anulados)
// @Tags movimientos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Success 200 {array} dto.MovimientoResponse
// @Router /v1/sesiones/{id}/movimientos [get]
func (h *MovimientoHandler) Listar(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ListarPorSesion(c.Request.Context(), sesionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular godoc
// @Summary Anula un movimiento activo — transición de estado, nunca borrado
// @Tags movimientos
// @Accept json
// @Security BearerAuth
// @Param id path string true "ID de movimiento"
// @Param body body dto.AnularMovimientoRequest true "Motivo de anulación"
// @Success 204
// @Failure 409 {object} apierror.APIError "movimiento ya anulado"
// @Router /v1/movimientos/{id}/anular [post]
func (h *MovimientoHandler) Anular(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.AnularMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.Anular(c.Request.Context(), id, usuarioID, req.Motivo); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
