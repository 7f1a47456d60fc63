package domain

// TokenPurpose binds a single-use token to one flow.
type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// NotificationKind selects the outbound message template.
type NotificationKind string

const (
	NotifyConfirmEmail  NotificationKind = "confirm_email"
	NotifyResetPassword NotificationKind = "reset_password"
)

// Notification is an outbound message carrying a single-use token to its owner.
type Notification struct {
	Kind        NotificationKind
	AccountID   string
	Email       string
	DisplayName string
	Token       string
}
