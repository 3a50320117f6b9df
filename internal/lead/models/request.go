package models

import (
	"encoding/json"
	"strings"

	dErrors "leadgate/pkg/domain-errors"
)

// SubmitRequest is the body of POST /api/send-devis.
type SubmitRequest struct {
	FormType       string          `json:"formType"`
	FormData       json.RawMessage `json:"formData"`
	SubmitToStrapi bool            `json:"submitToStrapi"`
	Email          string          `json:"email,omitempty"`
	FirstName      string          `json:"firstName,omitempty"`
	LastName       string          `json:"lastName,omitempty"`
}

func (r *SubmitRequest) Normalize() {
	r.FormType = strings.ToLower(strings.TrimSpace(r.FormType))
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *SubmitRequest) Validate() error {
	if r.FormType == "" {
		return dErrors.New(dErrors.CodeValidation, "Le type de formulaire est requis.")
	}
	if _, ok := ParseProduct(r.FormType); !ok {
		return dErrors.New(dErrors.CodeValidation, "Type de formulaire inconnu.")
	}
	if len(r.FormData) == 0 || string(r.FormData) == "null" {
		return dErrors.New(dErrors.CodeValidation, "Les données du formulaire sont manquantes.")
	}
	return nil
}

// SubmitResponse is the success body of POST /api/send-devis.
type SubmitResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	SubmissionID string         `json:"submissionId,omitempty"`
	StrapiResult *PersistResult `json:"strapiResult,omitempty"`
}

// PersistResult reports where the lead was stored in the CMS.
type PersistResult struct {
	Endpoint string          `json:"endpoint"`
	Attempts int             `json:"attempts"`
	Data     json.RawMessage `json:"data,omitempty"`
}
