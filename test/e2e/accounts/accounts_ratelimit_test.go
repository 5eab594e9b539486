//go:build e2e

package accounts_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
)

// TestLoginRateLimit uses the production limits: five login attempts per
// minute for one IP and identifier, then 429.
func TestLoginRateLimit(t *testing.T) {
	svc, cleanup := setupAccountsContainer(t, nil)
	defer cleanup()

	client := accountsdk.NewSDKClient(svc.BaseURL)
	ctx := t.Context()

	req := accountsdk.LoginRequest{UsernameOrEmail: "nobody@x.com", Password: testPassword}
	for range 5 {
		_, err := client.Login(ctx, req)
		assertAPIError(t, err, http.StatusNotFound, "")
	}

	_, err := client.Login(ctx, req)
	assertAPIError(t, err, http.StatusTooManyRequests, "Too many requests. Please try again later.")

	// A different identifier has its own bucket.
	_, err = client.Login(ctx, accountsdk.LoginRequest{UsernameOrEmail: "other@x.com", Password: testPassword})
	assertAPIError(t, err, http.StatusNotFound, "")
}
