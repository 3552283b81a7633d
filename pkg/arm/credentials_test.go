package arm

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewCredential(t *testing.T) {
	cred, err := NewCredential(Credentials{
		TenantID:     "00000000-0000-0000-0000-000000000001",
		ClientID:     "00000000-0000-0000-0000-000000000002",
		ClientSecret: "secret",
	})
	require.NoError(t, err)
	assert.IsType(t, &azidentity.ClientSecretCredential{}, cred)

	cred, err = NewCredential(Credentials{})
	require.NoError(t, err)
	assert.IsType(t, &azidentity.AzureCLICredential{}, cred)

	_, err = NewCredential(Credentials{ClientID: "only-id"})
	assert.Error(t, err)
}
