package arm

import (
	"errors"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/sirupsen/logrus"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultManagementURL is the public cloud resource manager endpoint.
	DefaultManagementURL = "https://management.azure.com"
	// DefaultAPIVersion is the Microsoft.MachineLearningServices api-version the checks were written against.
	DefaultAPIVersion = "2022-10-01"

	// ManagementScope is the token audience for resource manager calls.
	ManagementScope = "https://management.azure.com/.default"

	defaultHTTPTimeout = time.Minute
)

type Client struct {
	logger     *logrus.Logger
	baseURL    *url.URL
	apiVersion string
	cred       azcore.TokenCredential
	httpClient *http.Client

	token string
}

type Option func(*Client)

// WithHTTPClient overrides the http client used for resource manager calls.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func New(l *logrus.Logger, baseURL, apiVersion string, cred azcore.TokenCredential, opts ...Option) (*Client, error) {
	if l == nil {
		return nil, errors.New("no logger provided")
	}

	if cred == nil {
		return nil, errors.New("no credential provided")
	}

	if baseURL == "" {
		baseURL = DefaultManagementURL
	}

	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("invalid management url provided")
	}

	client := Client{
		logger:     l,
		baseURL:    parsed,
		apiVersion: apiVersion,
		cred:       cred,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}

	for _, opt := range opts {
		opt(&client)
	}

	return &client, nil
}
