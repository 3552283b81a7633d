package checker

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// Step is a course checkpoint made of one or more verifications.
type Step struct {
	ID            string
	Description   string
	Verifications []Verification
}

type StepResult struct {
	Step    string
	Passed  bool
	Hint    string
	Results []Result
}

var steps = map[string]Step{
	"1_used-an-azure-machine-learning-job-for-automation": {
		Description:   "Registered the nyc-taxi-data data asset and submitted a job",
		Verifications: []Verification{DataAssetCreated(ExpectedDataAsset), JobCount(1)},
	},
	"2_triggered-azure-machine-learning-jobs-with-github-actions": {
		Description:   "Triggered a second job from GitHub Actions",
		Verifications: []Verification{JobCount(2)},
	},
	"5_worked-with-environments-in-github-actions": {
		Description:   "Ran jobs across GitHub environments",
		Verifications: []Verification{JobCount(4)},
	},
	"6_deployed-a-model-with-github-actions": {
		Description:   "Deployed a model to an online endpoint",
		Verifications: []Verification{EndpointDeployed()},
	},
}

func LookupStep(id string) (Step, bool) {
	step, ok := steps[id]
	if !ok {
		return Step{}, false
	}

	step.ID = id
	return step, true
}

// Steps returns the catalog ordered by step id.
func Steps() []Step {
	all := make([]Step, 0, len(steps))
	for id := range steps {
		step, _ := LookupStep(id)
		all = append(all, step)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return all
}

// RunStep resolves the workspace once and evaluates every verification of the step.
func (c *Checker) RunStep(ctx context.Context, params Params, step Step) (StepResult, error) {
	if len(step.Verifications) == 0 {
		return StepResult{}, fmt.Errorf("step '%s' has no verifications", step.ID)
	}

	results, err := c.verifyAll(ctx, params, step.Verifications)
	if err != nil {
		return StepResult{}, err
	}

	stepResult := StepResult{
		Step:    step.ID,
		Passed:  true,
		Results: results,
	}

	for _, r := range results {
		if !r.Passed {
			stepResult.Passed = false
			stepResult.Hint = r.Hint
			break
		}
	}

	c.logger.WithField("step", step.ID).WithField("passed", stepResult.Passed).Info("checked course step")

	return stepResult, nil
}

// Print writes one console line per verification.
func (r StepResult) Print(w io.Writer) error {
	for _, result := range r.Results {
		if _, err := fmt.Fprintln(w, result.Message); err != nil {
			return err
		}
	}

	return nil
}
