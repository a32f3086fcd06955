package handler

import (
	"net/http"
	"strconv"

	"cajaledger/internal/apierror"
	"cajaledger/internal/dto"
	"cajaledger/internal/middleware"
	"cajaledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SesionHandler struct{ svc service.SesionService }

func NewSesionHandler(svc service.SesionService) *SesionHandler { return &SesionHandler{svc: svc} }

// Abrir godoc
// @Summary Abre una nueva sesión de caja
// @Tags sesiones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirSesionRequest true "Datos de apertura"
// @Success 201 {object} dto.SesionResponse
// @Failure 409 {object} apierror.APIError "caja inactiva u ocupada"
// @Router /v1/sesiones/abrir [post]
func (h *SesionHandler) Abrir(c *gin.Context) {
	var req dto.AbrirSesionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}

	resp, err := h.svc.Abrir(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SolicitarCierre godoc
// @Summary Solicita el cierre manual de una sesión
// @Description El cierre sólo se concreta a través del arqueo; este endpoint
// @Description falla con 409 mientras la sesión no tenga un arqueo aceptado.
// @Tags sesiones
// @Accept json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.SolicitarCierreRequest true "Motivo del cierre"
// @Success 204
// @Failure 409 {object} apierror.APIError "arqueo requerido o sesión cerrada"
// @Router /v1/sesiones/{id}/cierre [post]
func (h *SesionHandler) SolicitarCierre(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.SolicitarCierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.SolicitarCierre(c.Request.Context(), id, usuarioID, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetActiva godoc
// @Summary Devuelve la sesión abierta de una caja, si existe
// @Tags sesiones
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.SesionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/sesion-activa [get]
func (h *SesionHandler) GetActiva(c *gin.Context) {
	cajaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.GetActiva(c.Request.Context(), cajaID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("Sin sesión activa"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Lista paginada de sesiones de una caja
// @Tags sesiones
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Param page query int false "Página (desde 1)"
// @Param limit query int false "Tamaño de página (máx 100)"
// @Success 200 {object} map[string]interface{}
// @Router /v1/cajas/{id}/sesiones [get]
func (h *SesionHandler) Historial(c *gin.Context) {
	cajaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, total, err := h.svc.Historial(c.Request.Context(), cajaID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}

// SaldoEsperado godoc
// @Summary Saldo esperado por método de pago de una sesión abierta o pendiente
// @Tags sesiones
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Success 200 {object} dto.SaldoEsperadoResponse
// @Failure 409 {object} apierror.APIError "sesión cerrada"
// @Router /v1/sesiones/{id}/saldo-esperado [get]
func (h *SesionHandler) SaldoEsperado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.SaldoEsperado(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
