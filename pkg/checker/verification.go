package checker

import (
	"fmt"
	"github.com/hazcod/amlcheck/pkg/arm"
)

const (
	ExpectedDataAsset = "nyc-taxi-data"

	HintEndpointNotFound = "Endpoint in Succeeded provisioning state not found"
	HintSecondJob        = "Second Azure Machine Learning job not found"
)

// Verification is a predicate over one workspace collection.
type Verification struct {
	Name       string
	Collection string
	Predicate  func(resources []arm.Resource) bool
	Hint       func(resources []arm.Resource) string

	PassMessage string
	FailMessage string
}

func (v Verification) evaluate(resources []arm.Resource) Result {
	if v.Predicate(resources) {
		return Result{
			Check:    v.Name,
			Passed:   true,
			Message:  v.PassMessage,
			Observed: len(resources),
		}
	}

	result := v.fail(v.Hint(resources))
	result.Observed = len(resources)

	return result
}

func (v Verification) fail(hint string) Result {
	return Result{
		Check:   v.Name,
		Passed:  false,
		Hint:    hint,
		Message: v.FailMessage,
	}
}

func DataAssetCreated(name string) Verification {
	return Verification{
		Name:       "data_asset",
		Collection: arm.CollectionDataAssets,
		Predicate: func(resources []arm.Resource) bool {
			_, found := findByName(resources, name)
			return found
		},
		Hint: func([]arm.Resource) string {
			return fmt.Sprintf("Data asset %s not found", name)
		},
		PassMessage: "Data asset created",
		FailMessage: "Data asset not created",
	}
}

func JobCount(minCount int) Verification {
	return Verification{
		Name:       fmt.Sprintf("jobs_min_%d", minCount),
		Collection: arm.CollectionJobs,
		Predicate: func(resources []arm.Resource) bool {
			return len(resources) >= minCount
		},
		Hint: func(resources []arm.Resource) string {
			if minCount == 2 {
				return HintSecondJob
			}
			return fmt.Sprintf("Expected at least %d Azure Machine Learning jobs, found %d", minCount, len(resources))
		},
		PassMessage: "Jobs created",
		FailMessage: "Jobs not created",
	}
}

func EndpointDeployed() Verification {
	return Verification{
		Name:       "online_endpoint",
		Collection: arm.CollectionOnlineEndpoints,
		Predicate: func(resources []arm.Resource) bool {
			_, found := findSucceededEndpoint(resources)
			return found
		},
		Hint: func([]arm.Resource) string {
			return HintEndpointNotFound
		},
		PassMessage: "Endpoint is created",
		FailMessage: "Endpoint is not created",
	}
}

func findByName(resources []arm.Resource, name string) (arm.Resource, bool) {
	for _, r := range resources {
		if r.Name == name {
			return r, true
		}
	}

	return arm.Resource{}, false
}

func findSucceededEndpoint(endpoints []arm.Resource) (arm.Resource, bool) {
	for _, e := range endpoints {
		if e.Name != "" && e.Properties.ProvisioningState == arm.ProvisioningStateSucceeded {
			return e, true
		}
	}

	return arm.Resource{}, false
}
