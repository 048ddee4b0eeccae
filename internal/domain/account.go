package domain

// Account is the authenticated submitter, as carried by the auth token.
type Account struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
}
