package handler

import (
	"fmt"
	"net/http"

	"cajaledger/internal/apierror"
	"cajaledger/internal/dto"
	"cajaledger/internal/infra"
	"cajaledger/internal/middleware"
	"cajaledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ArqueoHandler struct{ svc service.ArqueoService }

func NewArqueoHandler(svc service.ArqueoService) *ArqueoHandler { return &ArqueoHandler{svc: svc} }

// Arqueo godoc
// @Summary Registra el arqueo y cierra la sesión en la misma operación
// @Description Acepta sesiones abiertas y pendientes de arqueo. Si la
// @Description diferencia supera la tolerancia configurada, la nota es
// @Description obligatoria.
// @Tags arqueos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.ArqueoRequest true "Declaración contada por método"
// @Success 200 {object} dto.ArqueoResponse
// @Failure 409 {object} apierror.APIError "sesión ya cerrada"
// @Failure 422 {object} apierror.ValidationError "nota de justificación requerida"
// @Router /v1/sesiones/{id}/arqueo [post]
func (h *ArqueoHandler) Arqueo(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.ArqueoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, parseErr := uuid.Parse(claims.UserID)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}

	resp, err := h.svc.Arqueo(c.Request.Context(), sesionID, usuarioID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Devuelve el arqueo persistido de una sesión, para auditoría
// @Tags arqueos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Success 200 {object} dto.ArqueoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sesiones/{id}/arqueo [get]
func (h *ArqueoHandler) Obtener(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ObtenerPorSesion(c.Request.Context(), sesionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary Comprobante imprimible del arqueo (formato ticket)
// @Tags arqueos
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/sesiones/{id}/arqueo/pdf [get]
func (h *ArqueoHandler) DescargarPDF(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	arqueo, err := h.svc.ObtenerPorSesion(c.Request.Context(), sesionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pdfBytes, err := infra.GenerateArqueoPDF(arqueo)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="arqueo_%s.pdf"`, sesionID))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
