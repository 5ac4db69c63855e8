package authapi

// LoginParams is the login request body. Both fields are optional here;
// the server decides what is acceptable.
type LoginParams struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// LoginResult is the login response body.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
}

// RefreshTokenResult exposes the refresh response as received.
type RefreshTokenResult struct {
	Status int    `json:"status"`
	Data   string `json:"data"`
}
