package arm

import (
	"fmt"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Credentials is an optional service principal. When empty the Azure CLI login is used.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

func (c Credentials) IsServicePrincipal() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

func NewCredential(creds Credentials) (azcore.TokenCredential, error) {
	if creds.IsServicePrincipal() {
		cred, err := azidentity.NewClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create client secret credential: %v", err)
		}

		return cred, nil
	}

	if creds.ClientID != "" || creds.ClientSecret != "" {
		return nil, fmt.Errorf("incomplete service principal for client '%s'", creds.ClientID)
	}

	var opts *azidentity.AzureCLICredentialOptions
	if creds.TenantID != "" {
		opts = &azidentity.AzureCLICredentialOptions{TenantID: creds.TenantID}
	}

	cred, err := azidentity.NewAzureCLICredential(opts)
	if err != nil {
		return nil, fmt.Errorf("could not create azure cli credential: %v", err)
	}

	return cred, nil
}
