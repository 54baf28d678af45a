package authorization

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/nexus/identity"
)

type Client struct {
	authzSvc *Service
}

func NewClient(authzSvc *Service) *Client {
	return &Client{
		authzSvc: authzSvc,
	}
}

// CheckAccess checks if the subject in the context has permission to perform the action on the object within the
// domain.
func (c *Client) CheckAccess(ctx context.Context, domain, object, action string) error {
	subject := identity.GetSubject(ctx)

	res, err := c.authzSvc.CheckAccess(ctx, CheckAccessRequest{
		Subject: subject,
		Domain:  domain,
		Object:  object,
		Action:  action,
	})
	if err != nil {
		return fmt.Errorf("error on check permission: %w", err)
	}

	if !res.Allowed {
		return AccessDeniedError{
			Subject: subject,
			Domain:  domain,
			Object:  object,
			Action:  action,
		}
	}

	return nil
}

func (c *Client) CanI(ctx context.Context, domain, object, action string) bool {
	return c.Can(ctx, identity.GetSubject(ctx), domain, object, action)
}

func (c *Client) Can(ctx context.Context, subject, domain, object, action string) bool {
	res, err := c.authzSvc.CheckAccess(ctx, CheckAccessRequest{
		Subject: subject,
		Domain:  domain,
		Object:  object,
		Action:  action,
	})

	return err == nil && res.Allowed
}

// Admit registers an actor vouched for by the upstream authenticator as a member of identity.Authenticated.
// Anonymous subjects are left alone.
func (c *Client) Admit(ctx context.Context, subject string) error {
	if subject == "" || subject == identity.Anonymous {
		return nil
	}

	err := c.authzSvc.JoinGroup(ctx, subject, identity.Authenticated)
	if err != nil {
		return fmt.Errorf("error on join group: %w", err)
	}

	return nil
}
