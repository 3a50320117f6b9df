package lead

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
}

// RegisterSteps registers quote submission step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &leadSteps{tc: tc}

	ctx.Step(`^I submit a "([^"]*)" devis with:$`, steps.submitDevis)
	ctx.Step(`^I submit a "([^"]*)" devis without accepting the terms$`, steps.submitWithoutTerms)
	ctx.Step(`^I submit a devis with form type "([^"]*)"$`, steps.submitUnknownType)
	ctx.Step(`^I submit the raw body "([^"]*)"$`, steps.submitRaw)
}

type leadSteps struct {
	tc TestContext
}

func (s *leadSteps) submitDevis(ctx context.Context, formType string, doc *godog.DocString) error {
	if !json.Valid([]byte(doc.Content)) {
		return fmt.Errorf("form data is not valid JSON: %s", doc.Content)
	}
	return s.tc.POST("/api/send-devis", map[string]interface{}{
		"formType": formType,
		"formData": json.RawMessage(doc.Content),
	})
}

func (s *leadSteps) submitWithoutTerms(ctx context.Context, formType string) error {
	return s.tc.POST("/api/send-devis", map[string]interface{}{
		"formType": formType,
		"formData": map[string]interface{}{
			"prenom":        "Awa",
			"nom":           "Diallo",
			"telephone":     "06 12 34 56 78",
			"termsAccepted": false,
			"typeDeVoiture": "Nouvel Achat",
			"carburant":     "Diesel",
		},
	})
}

func (s *leadSteps) submitUnknownType(ctx context.Context, formType string) error {
	return s.tc.POST("/api/send-devis", map[string]interface{}{
		"formType": formType,
		"formData": map[string]interface{}{},
	})
}

func (s *leadSteps) submitRaw(ctx context.Context, body string) error {
	return s.tc.POSTWithHeaders("/api/send-devis", body, nil)
}
