package access

import "context"

// decisionContextKey is the key for storing the access decision in context
type decisionContextKey struct{}

// SetDecisionToContext stores the access decision in context
func SetDecisionToContext(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// GetDecisionFromContext retrieves the access decision from context.
// The boolean is false when no middleware ran for this request.
func GetDecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}
