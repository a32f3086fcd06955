package handler

import (
	"net/http"

	"cajaledger/internal/apierror"
	"cajaledger/internal/dto"
	"cajaledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Crear godoc
// @Summary Registra una nueva caja física
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearCajaRequest true "Datos de la caja"
// @Success 201 {object} dto.CajaResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cajas [post]
func (h *CajaHandler) Crear(c *gin.Context) {
	var req dto.CrearCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista las cajas físicas, opcionalmente por empresa
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param empresa_id query string false "Filtro por empresa"
// @Success 200 {array} dto.CajaResponse
// @Router /v1/cajas [get]
func (h *CajaHandler) Listar(c *gin.Context) {
	var empresaID *uuid.UUID
	if q := c.Query("empresa_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("empresa_id inválido"))
			return
		}
		empresaID = &id
	}
	resp, err := h.svc.Listar(c.Request.Context(), empresaID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactivar godoc
// @Summary Desactiva una caja — no admite nuevas sesiones
// @Tags cajas
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/desactivar [patch]
func (h *CajaHandler) Desactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reactivar godoc
// @Summary Reactiva una caja desactivada
// @Tags cajas
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/reactivar [patch]
func (h *CajaHandler) Reactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Reactivar(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
