package models

// Settings holds the user-visible texts admins can edit.
type Settings struct {
	WorkshopLockedMessage string
	InviteNotFoundMessage string
	InviteExpiredMessage  string
	InviteUsedMessage     string
}
