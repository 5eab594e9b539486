package accountsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the accounts service. It provides access to
// public operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new SDK client for the accounts service.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSession wraps an existing token, e.g. one kept from an earlier login.
func (c *SDKClient) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}
