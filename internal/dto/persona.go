package dto

import (
	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
)

// ExtractPersonaRequest is the extraction endpoint payload
type ExtractPersonaRequest struct {
	UserMessage string `json:"userMessage"`
	UserID      string `json:"userId"`
}

// ExtractPersonaResponse reports the fields found and the saved persona
type ExtractPersonaResponse struct {
	Success         bool            `json:"success"`
	ExtractedFields persona.Patch   `json:"extractedFields"`
	UpdatedPersona  *models.Persona `json:"updatedPersona,omitempty"`
	Message         string          `json:"message"`
}

// ExtractPersonaError is returned when extraction fails
type ExtractPersonaError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// PersonaResponse wraps the caller's persona; Persona is null when none exists
type PersonaResponse struct {
	Persona *models.Persona `json:"persona"`
}
