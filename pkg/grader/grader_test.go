package grader

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/hazcod/amlcheck/pkg/arm"
	"github.com/hazcod/amlcheck/pkg/checker"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const (
	stepJobs     = "2_triggered-azure-machine-learning-jobs-with-github-actions"
	stepEndpoint = "6_deployed-a-model-with-github-actions"
)

type staticCredential struct{}

func (staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// fakeARM serves list responses keyed by the last path segment.
func fakeARM(t *testing.T, collections map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		segments := strings.Split(r.URL.Path, "/")
		body, ok := collections[segments[len(segments)-1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"ResourceNotFound","message":"not found"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestGrader(t *testing.T, serverURL string) (*Grader, *[]arm.Credentials) {
	t.Helper()

	seen := make([]arm.Credentials, 0)
	l := testLogger()

	g, err := New(l, func(creds arm.Credentials) (checker.ResourceLister, error) {
		seen = append(seen, creds)
		return arm.New(l, serverURL, "", staticCredential{})
	})
	require.NoError(t, err)

	return g, &seen
}

func testEvent() Event {
	var event Event
	event.EnvironmentParams.SubscriptionID = "sub-1"
	event.EnvironmentParams.ResourceGroup = "rg-learn"
	event.EnvironmentParams.Tenant = "tenant-1"
	event.Credentials.CredentialID = "client-1"
	event.Credentials.CredentialKey = "secret-1"
	return event
}

const workspaceList = `{"value":[{"name":"mlw-learn"}]}`

func TestWithHint(t *testing.T) {
	assert.Equal(t, Outcome{Result: true}, WithHint(true, "ignored"))
	assert.Equal(t, Outcome{Result: false, HintMessage: "missing"}, WithHint(false, "missing"))

	passed, err := json.Marshal(WithHint(true, "ignored"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":true}`, string(passed))

	failed, err := json.Marshal(WithHint(false, "missing"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":false,"hint_message":"missing"}`, string(failed))
}

func TestEvent_Decode(t *testing.T) {
	raw := `{
		"environment_params": {"subscription_id": "sub-1", "resource_group": "rg-learn", "tenant": "tenant-1"},
		"credentials": {"credential_id": "client-1", "credential_key": "secret-1"}
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	require.NoError(t, event.Validate())
	assert.Equal(t, testEvent(), event)

	assert.Equal(t, arm.Credentials{TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "secret-1"}, event.servicePrincipal())
	assert.Equal(t, checker.Params{SubscriptionID: "sub-1", ResourceGroupName: "rg-learn"}, event.params())
}

func TestEvent_ValidateMissingCredentials(t *testing.T) {
	event := testEvent()
	event.Credentials.CredentialKey = ""
	assert.Error(t, event.Validate())
}

func TestHandle_Jobs(t *testing.T) {
	tests := []struct {
		name    string
		jobs    string
		outcome Outcome
	}{
		{name: "two jobs", jobs: `{"value":[{"name":"a"},{"name":"b"}]}`, outcome: Outcome{Result: true}},
		{name: "one job", jobs: `{"value":[{"name":"a"}]}`, outcome: Outcome{Result: false, HintMessage: checker.HintSecondJob}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := fakeARM(t, map[string]string{"workspaces": workspaceList, "jobs": tt.jobs})
			g, seen := newTestGrader(t, server.URL)

			outcome, err := g.Handle(context.Background(), stepJobs, testEvent())
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, []arm.Credentials{testEvent().servicePrincipal()}, *seen)
		})
	}
}

func TestHandle_JobsListFailureCountsAsZero(t *testing.T) {
	server := fakeARM(t, map[string]string{"workspaces": workspaceList})
	g, _ := newTestGrader(t, server.URL)

	outcome, err := g.Handle(context.Background(), stepJobs, testEvent())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Result: false, HintMessage: checker.HintSecondJob}, outcome)
}

func TestHandle_NoWorkspace(t *testing.T) {
	server := fakeARM(t, map[string]string{"workspaces": `{"value":[]}`})
	g, _ := newTestGrader(t, server.URL)

	for _, step := range checker.Steps() {
		outcome, err := g.Handle(context.Background(), step.ID, testEvent())
		require.NoError(t, err, step.ID)
		assert.Equal(t, Outcome{Result: false, HintMessage: checker.HintWorkspaceNotFound}, outcome, step.ID)
	}
}

func TestHandle_EmptyEndpointListFailsGracefully(t *testing.T) {
	server := fakeARM(t, map[string]string{"workspaces": workspaceList, "onlineEndpoints": `{"value":[]}`})
	g, _ := newTestGrader(t, server.URL)

	outcome, err := g.Handle(context.Background(), stepEndpoint, testEvent())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Result: false, HintMessage: checker.HintEndpointNotFound}, outcome)
}

func TestHandle_EndpointSucceeded(t *testing.T) {
	server := fakeARM(t, map[string]string{
		"workspaces":      workspaceList,
		"onlineEndpoints": `{"value":[{"name":"taxi","properties":{"provisioningState":"Succeeded"}}]}`,
	})
	g, _ := newTestGrader(t, server.URL)

	outcome, err := g.Handle(context.Background(), stepEndpoint, testEvent())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Result: true}, outcome)
}

func TestHandle_UnknownStep(t *testing.T) {
	g, _ := newTestGrader(t, "https://management.azure.com")

	_, err := g.Handle(context.Background(), "9_unknown", testEvent())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStep))
}

func TestHandle_ClientFactoryError(t *testing.T) {
	g, err := New(testLogger(), func(arm.Credentials) (checker.ResourceLister, error) {
		return nil, errors.New("invalid tenant")
	})
	require.NoError(t, err)

	_, err = g.Handle(context.Background(), stepJobs, testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tenant")
}

func TestNewClientFactory_RequiresServicePrincipal(t *testing.T) {
	factory := NewClientFactory(testLogger(), "", "")

	_, err := factory(arm.Credentials{TenantID: "tenant-1"})
	assert.Error(t, err)
}
