package checker

import (
	"encoding/json"
	"fmt"
	validator "github.com/asaskevich/govalidator"
	"github.com/hazcod/amlcheck/pkg/arm"
	"os"
)

// Params are the per-invocation inputs of every check.
type Params struct {
	SubscriptionID    string `json:"subscription_id" valid:"required"`
	ResourceGroupName string `json:"resource_group_name" valid:"required"`
	// WorkspaceName is optional, the first workspace of the resource group is used otherwise.
	WorkspaceName string `json:"workspace_name,omitempty"`
}

func (p Params) Validate() error {
	if valid, err := validator.ValidateStruct(p); !valid || err != nil {
		return fmt.Errorf("invalid check parameters: %v", err)
	}

	return nil
}

func (p Params) scope() arm.Scope {
	return arm.Scope{
		SubscriptionID: p.SubscriptionID,
		ResourceGroup:  p.ResourceGroupName,
	}
}

// LoadParams reads a params.json file as distributed with the course steps.
// Missing fields are left empty, callers validate after applying their defaults.
func LoadParams(path string) (Params, error) {
	var params Params

	paramBytes, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to load parameters file at '%s': %v", path, err)
	}

	if err := json.Unmarshal(paramBytes, &params); err != nil {
		return params, fmt.Errorf("failed to parse parameters: %v", err)
	}

	return params, nil
}
