package main

import (
	"bytes"
	"context"
	"github.com/hazcod/amlcheck/config"
	"github.com/hazcod/amlcheck/pkg/checker"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestListCommand(t *testing.T) {
	root := newRootCommand(testLogger())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"list"})

	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(checker.Steps()))
	assert.True(t, strings.HasPrefix(lines[0], "1_used-an-azure-machine-learning-job-for-automation\t"))
}

func TestCheckCommand_UnknownStep(t *testing.T) {
	root := newRootCommand(testLogger())
	root.SetOut(io.Discard)
	root.SetArgs([]string{"check", "9_unknown"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}

func TestRunCheck_MissingParamsIsSwallowed(t *testing.T) {
	conf := &config.Config{}
	require.NoError(t, conf.Validate())

	step, ok := checker.LookupStep("2_triggered-azure-machine-learning-jobs-with-github-actions")
	require.True(t, ok)

	var out bytes.Buffer
	assert.NotPanics(t, func() {
		runCheck(context.Background(), testLogger(), conf, step, filepath.Join(t.TempDir(), "params.json"), &out)
	})
	assert.Empty(t, out.String())
}

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveParams_FallsBackToConfig(t *testing.T) {
	t.Setenv("AMLCHECK_AZURE_SUB_ID", "sub-1")
	t.Setenv("AMLCHECK_AZURE_RES_GROUP", "rg-learn")
	t.Setenv("AMLCHECK_AZURE_WS_NAME", "mlw-learn")

	conf := &config.Config{}
	require.NoError(t, conf.Load(testLogger(), ""))
	require.NoError(t, conf.Validate())

	params, err := resolveParams(conf, writeParams(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, checker.Params{
		SubscriptionID:    "sub-1",
		ResourceGroupName: "rg-learn",
		WorkspaceName:     "mlw-learn",
	}, params)
}

func TestResolveParams_FileWins(t *testing.T) {
	conf := &config.Config{}
	conf.Azure.SubscriptionID = "sub-config"
	conf.Azure.ResourceGroup = "rg-config"

	params, err := resolveParams(conf, writeParams(t, `{"subscription_id": "sub-file", "resource_group_name": "rg-file"}`))
	require.NoError(t, err)
	assert.Equal(t, "sub-file", params.SubscriptionID)
	assert.Equal(t, "rg-file", params.ResourceGroupName)
}

func TestResolveParams_MissingEverywhere(t *testing.T) {
	conf := &config.Config{}
	conf.Azure.SubscriptionID = "sub-1"

	_, err := resolveParams(conf, writeParams(t, `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resource_group_name")
}
