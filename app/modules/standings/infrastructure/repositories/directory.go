package standingsdb

import (
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/uptrace/bun"
)

// DirectoryImpl implements Directory using Bun ORM.
type DirectoryImpl struct {
	db bun.IDB
}

// NewDirectory creates a new user/role directory.
func NewDirectory(db bun.IDB) Directory {
	return &DirectoryImpl{db: db}
}

func (r *DirectoryImpl) GetUser(ctx context.Context, id int64) (standingsdomain.User, error) {
	user := new(UserProfile)
	if err := r.db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx); err != nil {
		return standingsdomain.User{}, storeError(fmt.Sprintf("failed to get user %d", id), err)
	}
	return standingsdomain.User{ID: user.ID, Handle: user.Handle}, nil
}

func (r *DirectoryImpl) GetRoleMembers(ctx context.Context, roleID int64) (mapset.Set[int64], error) {
	exists, err := r.db.NewSelect().Model((*Role)(nil)).Where("r.id = ?", roleID).Exists(ctx)
	if err != nil {
		return nil, storeError(fmt.Sprintf("failed to look up role %d", roleID), err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: unknown role %d", standingsdomain.ErrInvalidArgument, roleID)
	}

	var ids []int64
	err = r.db.NewSelect().
		Model((*UserRole)(nil)).
		Column("user_profile_id").
		Where("ur.role_id = ?", roleID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, storeError(fmt.Sprintf("failed to list members of role %d", roleID), err)
	}
	return mapset.NewThreadUnsafeSet(ids...), nil
}
