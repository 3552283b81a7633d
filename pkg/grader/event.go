package grader

import (
	"fmt"
	validator "github.com/asaskevich/govalidator"
	"github.com/hazcod/amlcheck/pkg/arm"
	"github.com/hazcod/amlcheck/pkg/checker"
)

// Event is the payload the grading service sends for a learner's environment.
type Event struct {
	EnvironmentParams struct {
		SubscriptionID string `json:"subscription_id" valid:"required"`
		ResourceGroup  string `json:"resource_group" valid:"required"`
		Tenant         string `json:"tenant" valid:"required"`
	} `json:"environment_params"`

	Credentials struct {
		CredentialID  string `json:"credential_id" valid:"required"`
		CredentialKey string `json:"credential_key" valid:"required"`
	} `json:"credentials"`
}

func (e Event) Validate() error {
	if valid, err := validator.ValidateStruct(e); !valid || err != nil {
		return fmt.Errorf("invalid event: %v", err)
	}

	return nil
}

func (e Event) params() checker.Params {
	return checker.Params{
		SubscriptionID:    e.EnvironmentParams.SubscriptionID,
		ResourceGroupName: e.EnvironmentParams.ResourceGroup,
	}
}

func (e Event) servicePrincipal() arm.Credentials {
	return arm.Credentials{
		TenantID:     e.EnvironmentParams.Tenant,
		ClientID:     e.Credentials.CredentialID,
		ClientSecret: e.Credentials.CredentialKey,
	}
}

// Outcome is returned to the grading service. The hint is only set on failure.
type Outcome struct {
	Result      bool   `json:"result"`
	HintMessage string `json:"hint_message,omitempty"`
}

func WithHint(result bool, hint string) Outcome {
	if result {
		return Outcome{Result: true}
	}

	return Outcome{Result: false, HintMessage: hint}
}
