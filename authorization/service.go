package authorization

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	authzProvider AuthorizationProvider
}

type AuthorizationProvider interface {
	CheckAccess(ctx context.Context, req CheckAccessRequest) (res *CheckAccessResponse, err error)
	AddToGroup(ctx context.Context, sub string, groups ...string) (err error)
	InGroup(ctx context.Context, sub, group string) (ok bool, err error)
}

var ErrNilProvider = errors.New("authorization provider is nil")

func NewService(authzProvider AuthorizationProvider) (*Service, error) {
	if authzProvider == nil {
		return nil, ErrNilProvider
	}

	return &Service{
		authzProvider: authzProvider,
	}, nil
}

type CheckAccessRequest struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

type CheckAccessResponse struct {
	// Allowed is required. True if the action would be allowed, false otherwise.
	Allowed bool
	// Reason is optional. It indicates why a request was allowed or denied.
	Reason string
}

type AccessDeniedError struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

func (err AccessDeniedError) Error() string {
	if err.Object != "" {
		return fmt.Sprintf(
			"access denied for subject '%s' and domain '%s' and object '%s' and action '%s'",
			err.Subject,
			err.Domain,
			err.Object,
			err.Action,
		)
	}

	return fmt.Sprintf(
		"access denied for subject '%s' and domain '%s' and action '%s'",
		err.Subject,
		err.Domain,
		err.Action,
	)
}

func (svc *Service) CheckAccess(ctx context.Context, req CheckAccessRequest) (*CheckAccessResponse, error) {
	res, err := svc.authzProvider.CheckAccess(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to check permission: %w", err)
	}

	return res, nil
}

// JoinGroup adds sub to every group it is not a member of yet.
func (svc *Service) JoinGroup(ctx context.Context, sub string, groups ...string) error {
	missing := make([]string, 0, len(groups))

	for _, group := range groups {
		ok, err := svc.authzProvider.InGroup(ctx, sub, group)
		if err != nil {
			return fmt.Errorf("failed to check group membership: %w", err)
		}

		if !ok {
			missing = append(missing, group)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	err := svc.authzProvider.AddToGroup(ctx, sub, missing...)
	if err != nil {
		return fmt.Errorf("failed to add grouping policies: %w", err)
	}

	return nil
}
