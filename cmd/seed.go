package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/category"
	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/abisalde/marketplace-service/internal/database"
	"github.com/abisalde/marketplace-service/internal/model"
)

// EditorGroup may manage the region tree.
const EditorGroup = "editor"

var (
	salePostPerms = []string{"salepost.add_salepost", "salepost.change_salepost", "salepost.delete_salepost"}
	regionPerms   = []string{"region.add_region", "region.change_region", "region.delete_region"}
)

// Seed creates the groups, permissions and default usage range the service
// expects. It is safe to run repeatedly.
func Seed(ctx context.Context, cfg *configs.Config, store *database.Store) error {
	return store.InTx(ctx, func(ctx context.Context) error {
		users := repository.NewUserRepository(store)
		if _, err := users.EnsureGroup(ctx, cfg.Auth.VerifiedGroup, salePostPerms...); err != nil {
			return fmt.Errorf("seeding group %s: %w", cfg.Auth.VerifiedGroup, err)
		}
		if _, err := users.EnsureGroup(ctx, EditorGroup, regionPerms...); err != nil {
			return fmt.Errorf("seeding group %s: %w", EditorGroup, err)
		}

		categories := category.NewRepository(store)
		_, err := categories.UsageRangeByUniqueID(ctx, category.DefaultUsageRangeUniqueID)
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		return categories.CreateUsageRange(ctx, &model.UsageRange{
			UniqueID: category.DefaultUsageRangeUniqueID,
			Name:     "Not specified",
		})
	})
}
