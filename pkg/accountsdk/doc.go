/*
Package accountsdk provides a client SDK for the accounts service.

# SDKClient vs Session

  - SDKClient: public operations (signup, login, password-reset links, health)
  - Session: operations that need a session token (profile, password change, logout)

Signup and Login return a Session:

	client := accountsdk.NewSDKClient("https://accounts.example.com")

	session, err := client.Login(ctx, accountsdk.LoginRequest{
		UsernameOrEmail: "jane@example.com",
		Password:        "Passw0rd!",
	})

	profile, err := session.GetProfile(ctx)

A Session sends its token as a bearer token. The server also sets the token
as an httpOnly cookie for browsers. The SDK ignores it, and an HTTPClient with
a cookie jar should not be shared between users, as the server reads the
cookie before the Authorization header.

# Error Handling

Non-2xx responses are returned as *Error carrying the HTTP status and the
message from the error envelope:

	_, err := client.Login(ctx, req)
	var apiErr *accountsdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		// unknown user
	}

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package accountsdk
