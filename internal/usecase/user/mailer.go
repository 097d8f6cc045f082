package user

import "context"

// Mailer delivers account mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}
