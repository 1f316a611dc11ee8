package application

import (
	"context"

	"github.com/manorfm/identity-server/internal/domain"
	"go.uber.org/zap"
)

// BootstrapConfig names the administrator and, optionally, the client it
// signs in through. An empty username disables bootstrapping.
type BootstrapConfig struct {
	Admin  EntityRegistration
	Client ClientRegistration
}

// Bootstrap seeds the first administrator and the client it uses for the
// password grant. Running it again changes nothing.
func Bootstrap(ctx context.Context, entities *EntityService, clients *ClientService, cfg BootstrapConfig, logger *zap.Logger) error {
	if cfg.Admin.Username == "" {
		logger.Debug("No bootstrap admin configured")
		return nil
	}

	admin, err := entities.EnsureAdmin(ctx, cfg.Admin)
	if err != nil {
		return err
	}
	logger.Info("Bootstrap admin ready", zap.String("entity", admin.EntityName()))

	if cfg.Client.ClientID == "" {
		return nil
	}
	reg := cfg.Client
	if reg.Name == "" {
		reg.Name = "bootstrap"
	}
	if len(reg.GrantTypes) == 0 {
		reg.GrantTypes = []string{domain.GrantTypePassword, domain.GrantTypeRefreshToken}
	}
	client, err := clients.EnsureClient(ctx, reg)
	if err != nil {
		return err
	}
	logger.Info("Bootstrap client ready", zap.String("client_id", client.ClientID))
	return nil
}
