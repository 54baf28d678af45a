// Package identity carries the actor supplied by the external authenticator on a context.Context. The discussion
// core only consumes it; credentials are never verified here.
package identity

import "context"

const (
	// Anonymous is the subject of requests without an authenticated actor.
	Anonymous = "system:anonymous"

	Authenticated   = "system:authenticated"
	Unauthenticated = "system:unauthenticated"
)

type contextKeySubject struct{}

type contextKeyDisplayName struct{}

type contextKeySessionID struct{}

func GetSubject(ctx context.Context) string {
	subject, ok := ctx.Value(contextKeySubject{}).(string)
	if !ok || subject == "" {
		return Anonymous
	}

	return subject
}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKeySubject{}, subject)
}

func IsAnonymous(ctx context.Context) bool {
	return GetSubject(ctx) == Anonymous
}

// ActorID returns the subject, or an empty string for anonymous requests.
func ActorID(ctx context.Context) string {
	subject := GetSubject(ctx)
	if subject == Anonymous {
		return ""
	}

	return subject
}

func GetDisplayName(ctx context.Context) string {
	name, ok := ctx.Value(contextKeyDisplayName{}).(string)
	if !ok {
		return ""
	}

	return name
}

func WithDisplayName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKeyDisplayName{}, name)
}

// SessionIDFromContext returns the view session of the request, which scopes transient UI state such as which
// comments are expanded.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(contextKeySessionID{}).(string)
	if !ok || sessionID == "" {
		return "", false
	}

	return sessionID, true
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID{}, sessionID)
}
