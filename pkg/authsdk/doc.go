/*
Package authsdk provides a client SDK for the signet authentication service,
along with the request, response and error types the service itself writes.

# Usage

	client := authsdk.NewSDKClient("http://localhost:8080")

	user, err := client.SignUp(ctx, "alice", "s3cret")
	token, err := client.SignIn(ctx, "alice", "s3cret")

	code, err := client.RequestEmailOTP(ctx, token.AccessToken, "alice@example.com")
	user, err = client.VerifyEmailOTP(ctx, token.AccessToken, "alice@example.com", code)

# Errors

Non-2xx responses are returned as *APIError carrying the status code and
the service's error code:

	if authsdk.IsStatus(err, http.StatusNotFound) {
		// unknown username
	}
*/
package authsdk
