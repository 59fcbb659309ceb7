// Package types defines the shared domain types for the VC council analysis pipeline.
package types

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CompanyInput holds the company data submitted for analysis.
// The pipeline treats it as opaque input; only the server validates it.
type CompanyInput struct {
	CompanyName        string         `json:"company_name" validate:"required"`
	Website            string         `json:"website" validate:"required,url"`
	FounderGithub      string         `json:"founder_github,omitempty"`
	Industry           string         `json:"industry,omitempty"`
	ProductDescription string         `json:"product_description,omitempty"`
	FinancialMetrics   map[string]any `json:"financial_metrics,omitempty"`
}

// Validate validates the CompanyInput using the validator.
func (c *CompanyInput) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Summary renders the input as a compact block for prompt construction.
func (c *CompanyInput) Summary() string {
	var sb strings.Builder
	sb.WriteString("Company: " + c.CompanyName + "\n")
	sb.WriteString("Website: " + c.Website + "\n")
	if c.Industry != "" {
		sb.WriteString("Industry: " + c.Industry + "\n")
	}
	if c.FounderGithub != "" {
		sb.WriteString("Founder GitHub: " + c.FounderGithub + "\n")
	}
	if c.ProductDescription != "" {
		sb.WriteString("Product: " + c.ProductDescription + "\n")
	}
	if len(c.FinancialMetrics) > 0 {
		if metrics, err := json.Marshal(c.FinancialMetrics); err == nil {
			sb.WriteString("Financial metrics: " + string(metrics) + "\n")
		}
	}
	return sb.String()
}
