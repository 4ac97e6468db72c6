package repository

import (
	"context"

	"bookline-inbox/internal/domain/user"
)

type PostgresUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetIdentities(ctx context.Context, ids []int64) (map[int64]user.Identity, error) {
	out := make(map[int64]user.Identity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.display_name, u.avatar_url, p.business_name, p.logo_url
		FROM users u
		LEFT JOIN provider_profiles p ON p.user_id = u.id
		WHERE u.id = ANY($1)`, ids)
	if err != nil {
		return nil, storeErr("get identities", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u user.User
		var p user.ProviderProfile
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.AvatarURL, &p.BusinessName, &p.LogoURL); err != nil {
			return nil, storeErr("scan identity", err)
		}
		out[u.ID] = user.ResolveIdentity(u, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("get identities", err)
	}
	return out, nil
}
