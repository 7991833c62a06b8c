package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
)

// NewProvisioner returns the identity provider client selected by cfg.IdentityDriver.
func NewProvisioner(cfg *config.Config, log zerolog.Logger) (identity.Provisioner, error) {
	switch cfg.IdentityDriver {
	case "noop":
		return identity.NewNoopProvisioner(log), nil
	case "cognito":
		if cfg.IdentityEndpoint == "" || cfg.IdentityClientID == "" {
			return nil, fmt.Errorf("%s_IDENTITY_ENDPOINT and %s_IDENTITY_CLIENT_ID are required when IDENTITY_DRIVER=cognito",
				config.EnvPrefix, config.EnvPrefix)
		}
		return identity.NewCognitoClient(cfg.IdentityEndpoint, cfg.IdentityClientID, cfg.IdentityClientSecret, cfg.CallTimeout(), log), nil
	}
	return nil, fmt.Errorf("unknown IDENTITY_DRIVER: %s", cfg.IdentityDriver)
}
