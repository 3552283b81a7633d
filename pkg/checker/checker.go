package checker

import (
	"context"
	"errors"
	"fmt"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/hazcod/amlcheck/pkg/arm"
	"github.com/sirupsen/logrus"
)

const HintWorkspaceNotFound = "Azure Machine Learning workspace not found"

// ResourceLister is the subset of the resource manager client the checks need.
type ResourceLister interface {
	Authenticate(ctx context.Context) error
	ListWorkspaces(ctx context.Context, scope arm.Scope) ([]arm.Resource, error)
	ListWorkspaceCollection(ctx context.Context, scope arm.Scope, workspace, collection string) ([]arm.Resource, error)
}

type Checker struct {
	logger *logrus.Entry
	client ResourceLister
}

func New(l *logrus.Logger, client ResourceLister) (*Checker, error) {
	if l == nil {
		return nil, errors.New("no logger provided")
	}

	if client == nil {
		return nil, errors.New("no resource client provided")
	}

	return &Checker{
		logger: l.WithField("module", "checker"),
		client: client,
	}, nil
}

type Result struct {
	Check     string
	Passed    bool
	Hint      string
	Message   string
	Workspace string
	Observed  int
}

func (c *Checker) CheckDataAssetCreated(ctx context.Context, params Params) (Result, error) {
	return c.Verify(ctx, params, DataAssetCreated(ExpectedDataAsset))
}

func (c *Checker) CheckJobCount(ctx context.Context, params Params, minCount int) (Result, error) {
	return c.Verify(ctx, params, JobCount(minCount))
}

func (c *Checker) CheckEndpointDeployed(ctx context.Context, params Params) (Result, error) {
	return c.Verify(ctx, params, EndpointDeployed())
}

// Verify runs a single verification against the workspace of the resource group.
func (c *Checker) Verify(ctx context.Context, params Params, v Verification) (Result, error) {
	results, err := c.verifyAll(ctx, params, []Verification{v})
	if err != nil {
		return Result{}, err
	}

	return results[0], nil
}

func (c *Checker) verifyAll(ctx context.Context, params Params, verifications []Verification) ([]Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := c.client.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("could not authenticate to Azure: %w", err)
	}

	scope := params.scope()
	logger := c.logger.WithField("subscription_id", scope.SubscriptionID).
		WithField("resource_group", scope.ResourceGroup)

	workspace := c.resolveWorkspace(ctx, logger, scope, params.WorkspaceName)

	results := make([]Result, 0, len(verifications))

	for _, v := range verifications {
		if workspace == "" {
			results = append(results, v.fail(HintWorkspaceNotFound))
			continue
		}

		vLogger := logger.WithField("workspace", workspace).WithField("check", v.Name)

		resources, err := c.client.ListWorkspaceCollection(ctx, scope, workspace, v.Collection)
		if err != nil {
			var respErr *azcore.ResponseError
			if !errors.As(err, &respErr) {
				return nil, fmt.Errorf("could not list %s of workspace '%s': %w", v.Collection, workspace, err)
			}

			vLogger.WithField("status", respErr.StatusCode).WithField("code", respErr.ErrorCode).
				Warn("listing resources failed, treating collection as empty")
			resources = nil
		}

		result := v.evaluate(resources)
		result.Workspace = workspace

		vLogger.WithField("passed", result.Passed).WithField("observed", result.Observed).
			Debug("evaluated check")

		results = append(results, result)
	}

	return results, nil
}

// resolveWorkspace never fails; any problem yields an empty name.
func (c *Checker) resolveWorkspace(ctx context.Context, logger *logrus.Entry, scope arm.Scope, preferred string) string {
	workspaces, err := c.client.ListWorkspaces(ctx, scope)
	if err != nil {
		logger.WithError(err).Error("could not list Azure Machine Learning workspaces")
		return ""
	}

	if len(workspaces) == 0 {
		logger.Warn("no Azure Machine Learning workspace found")
		return ""
	}

	if preferred != "" {
		for _, ws := range workspaces {
			if ws.Name == preferred {
				return ws.Name
			}
		}

		logger.WithField("workspace", preferred).WithField("total", len(workspaces)).
			Warn("configured workspace not found in resource group")
		return ""
	}

	if len(workspaces) > 1 {
		logger.WithField("total", len(workspaces)).WithField("workspace", workspaces[0].Name).
			Warn("multiple workspaces found, using the first one")
	}

	return workspaces[0].Name
}
