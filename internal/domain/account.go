package domain

// Account is a destination account as seen through the account directory.
// The core never writes accounts.
type Account struct {
	ID             string
	UserID         string
	Platform       string
	Enabled        bool
	CredentialsRef string
	DisplayName    string
}
