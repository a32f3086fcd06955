package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCajaRequest struct {
	EmpresaID string `json:"empresa_id" validate:"required,uuid"`
	Nombre    string `json:"nombre"     validate:"required,min=2"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID        string    `json:"id"`
	EmpresaID string    `json:"empresa_id"`
	Nombre    string    `json:"nombre"`
	Estado    string    `json:"estado"` // activa | inactiva
	CreatedAt time.Time `json:"created_at"`
}
