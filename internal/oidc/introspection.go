// Package oidc authenticates senders whose bearer tokens are issued by an
// external OpenID Connect provider, using RFC 7662 token introspection.
package oidc

import (
	"context"
	"fmt"

	"github.com/zitadel/oidc/v3/pkg/client/rs"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"invitely/eventhub/internal/config"
	"invitely/eventhub/internal/service"
)

type introspectionAuthenticator struct {
	resourceServer rs.ResourceServer
}

// NewIntrospectionAuthenticator discovers the provider's introspection
// endpoint and authenticates to it with client credentials.
func NewIntrospectionAuthenticator(ctx context.Context, cfg config.OIDCConfig) (service.SenderAuthenticator, error) {
	resourceServer, err := rs.NewResourceServerClientCredentials(ctx, cfg.Issuer, cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("create resource server for %s: %w", cfg.Issuer, err)
	}
	return &introspectionAuthenticator{resourceServer: resourceServer}, nil
}

func (a *introspectionAuthenticator) Authenticate(ctx context.Context, token string) (*service.Sender, error) {
	resp, err := rs.Introspect[*oidc.IntrospectionResponse](ctx, a.resourceServer, token)
	if err != nil {
		return nil, fmt.Errorf("introspect token: %w: %w", service.ErrDependency, err)
	}
	if !resp.Active || resp.Subject == "" {
		return nil, service.ErrInvalidCredentials
	}
	return service.NewSender(resp.Subject, resp.Username), nil
}
