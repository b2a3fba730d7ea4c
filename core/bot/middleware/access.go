package middleware

import "github.com/m3rciful/maxbot/core/bot"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject bot.HandlerFunc
}

// AdminOnly ensures that only the admin user can invoke downstream handlers.
// A zero AdminID disables the check.
func AdminOnly(opts AdminOptions) bot.MiddlewareFunc {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(c *bot.Context) error {
			if opts.AdminID != 0 && c.UserID() != opts.AdminID {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// WithAdminCheck wraps a command handler when the command is admin-only.
func WithAdminCheck(opts AdminOptions, cmd bot.Command) bot.HandlerFunc {
	if !cmd.AdminOnly || opts.AdminID == 0 {
		return cmd.Handler
	}
	return AdminOnly(opts)(cmd.Handler)
}
