package model

// Operator is static configuration loaded once at process start. The
// credential secret is held as a bcrypt hash and never serialized.
type Operator struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	HomeLocation   string `json:"home_location"`
	CredentialHash string `json:"-"`
}
