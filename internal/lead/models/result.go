package models

// ResultType discriminates failed submissions.
type ResultType string

const (
	ResultRateLimit  ResultType = "rate_limit"
	ResultValidation ResultType = "validation_error"
	ResultUnknown    ResultType = "unknown"
)

// SubmissionResult is the outcome of one submission attempt as seen by the
// visitor. Submission never fails with an error; failures are results.
type SubmissionResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Error   string     `json:"error,omitempty"`
	Type    ResultType `json:"type,omitempty"`
}

// User-facing submission messages.
const (
	MessageSubmitted = "Votre demande de devis a bien été envoyée. Un conseiller vous recontactera rapidement."
	MessageTechnical = "Une erreur technique est survenue. Veuillez réessayer plus tard."
)
