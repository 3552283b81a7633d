package arm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
)

const (
	// stop following nextLink after this many pages
	maxListPages = 50

	machineLearningProvider = "Microsoft.MachineLearningServices"
)

// Collections scoped to a workspace.
const (
	CollectionDataAssets      = "data"
	CollectionJobs            = "jobs"
	CollectionOnlineEndpoints = "onlineEndpoints"
)

const ProvisioningStateSucceeded = "Succeeded"

type Resource struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Location   string `json:"location,omitempty"`
	Properties ResourceProperties `json:"properties"`
}

type ResourceProperties struct {
	ProvisioningState string `json:"provisioningState,omitempty"`
}

type listResponse struct {
	Value    []Resource `json:"value"`
	NextLink string     `json:"nextLink"`
}

// Scope identifies the resource group the checks run against.
type Scope struct {
	SubscriptionID string
	ResourceGroup  string
}

func (s Scope) workspacesPath() string {
	return path.Join("/subscriptions", s.SubscriptionID,
		"resourceGroups", s.ResourceGroup,
		"providers", machineLearningProvider, "workspaces")
}

// Authenticate acquires the bearer token used by all subsequent list calls.
func (c *Client) Authenticate(ctx context.Context) error {
	accessToken, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{ManagementScope}})
	if err != nil {
		return fmt.Errorf("could not acquire management token: %w", err)
	}

	if accessToken.Token == "" {
		return errors.New("received empty management token")
	}

	c.token = accessToken.Token
	c.logger.WithField("expires", accessToken.ExpiresOn).Debug("acquired management token")

	return nil
}

func (c *Client) ListWorkspaces(ctx context.Context, scope Scope) ([]Resource, error) {
	return c.list(ctx, scope.workspacesPath())
}

// ListWorkspaceCollection lists one of the Collection* resources of a workspace.
func (c *Client) ListWorkspaceCollection(ctx context.Context, scope Scope, workspace, collection string) ([]Resource, error) {
	if workspace == "" {
		return nil, errors.New("no workspace name provided")
	}

	return c.list(ctx, path.Join(scope.workspacesPath(), workspace, collection))
}

func (c *Client) list(ctx context.Context, resourcePath string) ([]Resource, error) {
	if c.token == "" {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	listURL := *c.baseURL
	listURL.Path = path.Join(c.baseURL.Path, resourcePath)
	listURL.RawQuery = url.Values{"api-version": []string{c.apiVersion}}.Encode()

	next := listURL.String()
	resources := make([]Resource, 0)

	for page := 0; next != ""; page++ {
		if page >= maxListPages {
			c.logger.WithField("module", "arm").WithField("path", resourcePath).WithField("pages", page).
				Warn("reached maximum number of pages, truncating list")
			break
		}

		response, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}

		resources = append(resources, response.Value...)

		next, err = c.checkNextLink(response.NextLink)
		if err != nil {
			return nil, err
		}
	}

	c.logger.WithField("module", "arm").WithField("path", resourcePath).
		WithField("total", len(resources)).Debug("listed resources")

	return resources, nil
}

// checkNextLink refuses to send the bearer token to another host or over another scheme.
func (c *Client) checkNextLink(link string) (string, error) {
	if link == "" {
		return "", nil
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("could not parse next link: %v", err)
	}

	if parsed.Scheme != c.baseURL.Scheme {
		return "", fmt.Errorf("next link uses unexpected scheme '%s'", parsed.Scheme)
	}

	if parsed.Host != c.baseURL.Host {
		return "", fmt.Errorf("next link points to unexpected host '%s'", parsed.Host)
	}

	return link, nil
}

func (c *Client) getPage(ctx context.Context, pageURL string) (*listResponse, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %v", err)
	}

	httpRequest.Header.Set("accept", "application/json")
	httpRequest.Header.Set("content-type", "application/json")
	httpRequest.Header.Set("x-ms-client-request-id", uuid.NewString())

	if c.logger.IsLevelEnabled(logrus.TraceLevel) {
		reqBytes, err := httputil.DumpRequest(httpRequest, false)
		if err != nil {
			c.logger.WithError(err).Warn("could not dump http request")
		}

		c.logger.Trace(string(reqBytes))
	}

	httpRequest.Header.Set("authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("could not request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, runtime.NewResponseError(resp)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %v", err)
	}

	var response listResponse
	if err := json.Unmarshal(respBytes, &response); err != nil {
		return nil, fmt.Errorf("could not decode response: %v", err)
	}

	return &response, nil
}
