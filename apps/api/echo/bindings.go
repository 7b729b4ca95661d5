package echoapi

type LoginResponse struct {
	Token string `json:"token"`
}

type SuccessResponse struct {
	Success string `json:"success"`
}

// googleUserInfo is the slice of Google's userinfo payload we care about.
type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}
