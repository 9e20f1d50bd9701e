package types

import (
	"context"

	ierr "github.com/poolstack/poolstack/internal/errors"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID      ContextKey = "ctx_request_id"
	CtxOrganizationID ContextKey = "ctx_organization_id"
	CtxUserID         ContextKey = "ctx_user_id"
	CtxDBTransaction  ContextKey = "ctx_db_transaction"

	// Default values used by scripts and tests
	DefaultOrganizationID = "org_00000000000000000000000000"
	DefaultUserID         = "user_00000000000000000000000000"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAPIKey        = "x-api-key"
	HeaderAuthorization = "Authorization"
)

func GetOrganizationID(ctx context.Context) string {
	if orgID, ok := ctx.Value(CtxOrganizationID).(string); ok {
		return orgID
	}
	return ""
}

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetOrganizationID sets the organization ID in the context
func SetOrganizationID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, CtxOrganizationID, orgID)
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// ValidateOrganizationContext validates that the tenant scoping fields are present
func ValidateOrganizationContext(ctx context.Context) error {
	if GetOrganizationID(ctx) == "" {
		return ierr.NewError("no organization found in context").
			WithHint("Request is missing organization scope").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}
