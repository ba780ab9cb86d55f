package models

import "context"

type auditorKey struct{}

// WithAuditor returns a context carrying the login recorded in the
// created_by / last_modified_by columns of rows written with it.
func WithAuditor(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, auditorKey{}, login)
}

// AuditorFrom returns the login stored by WithAuditor, or the system account.
func AuditorFrom(ctx context.Context) string {
	if ctx == nil {
		return SystemAccount
	}
	if login, ok := ctx.Value(auditorKey{}).(string); ok && login != "" {
		return login
	}
	return SystemAccount
}
