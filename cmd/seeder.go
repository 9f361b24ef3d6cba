package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/role"
	"github.com/frahmantamala/opentna/internal/storage"
	"github.com/frahmantamala/opentna/internal/user"
	"github.com/frahmantamala/opentna/pkg/logger"
)

var (
	seedAdminUsername string
	seedAdminPassword string
	seedResetAdmin    bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the default roles and an administrator",
	Long:  `Seed the database with the default roles and an administrator. Existing rows are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := logger.LoggerWrapper()

		db, sqlxDB, err := initDB(cfg.Database, lg)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer sqlxDB.Close()

		if clearData {
			if err := clearTables(db); err != nil {
				return err
			}
			lg.Info("existing data cleared")
		}

		services, err := buildServices(cfg, db, sqlxDB, lg)
		if err != nil {
			return err
		}
		return seed(cmd.Context(), services, lg)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "admin", "username of the seeded administrator")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "admin", "password of the seeded administrator")
	seedCmd.Flags().BoolVar(&seedResetAdmin, "reset-admin", false, "reset the password of an existing administrator and re-enable it")
}

var defaultRoles = []struct {
	Name string
	Desc string
}{
	{"administrator", "manages users, roles and proximity cards"},
	{"supervisor", "reviews attendance of the team"},
	{"employee", "records attendance with a proximity card"},
}

func seed(ctx context.Context, services *Services, lg *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var adminRoleID int64
	for _, r := range defaultRoles {
		desc := r.Desc
		created, err := services.Roles.CreateRole(ctx, role.CreateRoleDTO{Name: r.Name, Description: &desc, Enabled: true})
		switch {
		case err == nil:
			lg.Info("seeded role", "name", created.Name)
		case errors.Is(err, internal.ErrDuplicateKey):
			lg.Info("role already exists", "name", r.Name)
			if created, err = services.Roles.LoadRoleByName(ctx, r.Name); err != nil {
				return err
			}
		default:
			return fmt.Errorf("failed to seed role %s: %w", r.Name, err)
		}
		if r.Name == defaultRoles[0].Name {
			adminRoleID = created.ID
		}
	}

	admin, err := services.Users.CreateUser(ctx, user.CreateUserDTO{
		Username:           seedAdminUsername,
		Password:           base64.StdEncoding.EncodeToString([]byte(seedAdminPassword)),
		MustChangePassword: true,
		Enabled:            true,
		RoleIDs:            []int64{adminRoleID},
	})
	switch {
	case err == nil:
		lg.Info("seeded administrator", "username", admin.Username, "user_id", admin.ID)
	case errors.Is(err, internal.ErrDuplicateKey):
		lg.Info("administrator already exists", "username", seedAdminUsername)
		if seedResetAdmin {
			return resetAdmin(ctx, services.Users, lg)
		}
	default:
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	return nil
}

// resetAdmin restores a locked-out administrator: new password, enabled,
// and forced to change the password on next use.
func resetAdmin(ctx context.Context, users *user.Service, lg *slog.Logger) error {
	admin, err := users.LoadUserByUsername(ctx, seedAdminUsername)
	if err != nil {
		return err
	}
	if _, err := users.ChangePassword(ctx, admin.ID, seedAdminPassword); err != nil {
		return fmt.Errorf("failed to reset administrator password: %w", err)
	}
	if _, err := users.UpdateEnabled(ctx, admin.ID, true); err != nil {
		return fmt.Errorf("failed to enable administrator: %w", err)
	}
	if _, err := users.UpdateMustChangePassword(ctx, admin.ID, true); err != nil {
		return fmt.Errorf("failed to flag administrator: %w", err)
	}
	lg.Info("administrator reset", "username", admin.Username, "user_id", admin.ID)
	return nil
}

// clearTables empties every table, children first.
func clearTables(db *gorm.DB) error {
	models := storage.Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", models[i], err)
		}
	}
	return nil
}
