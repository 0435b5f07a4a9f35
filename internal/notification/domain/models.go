package domain

// Recipient is the contact data of a marketplace user.
type Recipient struct {
	ID          string
	Email       string
	DisplayName string
}
