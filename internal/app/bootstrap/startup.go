// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/strataview/internal/app/store/users"
	"github.com/dalemusser/strataview/internal/app/system/authutil"
	"github.com/dalemusser/strataview/internal/app/system/normalize"
	"github.com/dalemusser/strataview/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting. The context will be cancelled if the process is asked to shut
// down while Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed superuser if configured
	if appCfg.SeedSuperuserEmail != "" {
		if err := ensureSuperuser(ctx, deps, appCfg, logger); err != nil {
			logger.Error("failed to seed superuser", zap.Error(err))
			return err
		}
	}

	return nil
}

// ensureSuperuser ensures a superuser exists with the configured email.
// An existing user with this email is promoted; otherwise a new superuser
// is created (which requires a seed password).
func ensureSuperuser(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	store := userstore.New(deps.MongoDatabase)
	email := normalize.Email(appCfg.SeedSuperuserEmail)

	existing, err := store.GetByEmail(ctx, email)
	if err == nil {
		if existing.IsSuperuser {
			logger.Debug("superuser already configured", zap.String("email", email))
			return nil
		}

		enable := true
		if err := store.Update(ctx, existing.ID, userstore.UpdateInput{
			IsSuperuser: &enable,
			IsActive:    &enable,
		}); err != nil {
			return err
		}
		logger.Info("promoted existing user to superuser",
			zap.String("email", email),
			zap.String("user_id", existing.ID.Hex()))
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	if appCfg.SeedSuperuserPassword == "" {
		return errors.New("seed_superuser_password is required to create a new superuser")
	}
	if err := authutil.ValidatePassword(appCfg.SeedSuperuserPassword); err != nil {
		return err
	}
	hash, err := authutil.HashPassword(appCfg.SeedSuperuserPassword)
	if err != nil {
		return err
	}

	created, err := store.Create(ctx, models.User{
		Username:     normalize.Username(appCfg.SeedSuperuserUsername),
		Email:        email,
		IsActive:     true,
		IsSuperuser:  true,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	logger.Info("created superuser",
		zap.String("email", email),
		zap.String("user_id", created.ID.Hex()))
	return nil
}
