package models

// Credentials identify an application registered at https://dev.telstra.com.
type Credentials struct {
	ClientId     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (c Credentials) IsZero() bool {
	return c.ClientId == "" || c.ClientSecret == ""
}
