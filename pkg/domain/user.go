package domain

// BusinessUser is the read-side projection of a registered user. It carries no
// password material and is what caches, tokens and handlers pass around.
type BusinessUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
