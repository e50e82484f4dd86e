package auth

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
)

// Role grants access to one URL. An empty Method allows every method.
type Role struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

type PermissionStore interface {
	GroupRoles(ctx context.Context, groupID int) ([]Role, error)
}

// Allows reports whether one of roles grants method on path. URLs match exactly.
func Allows(roles []Role, method, path string) bool {
	for _, r := range roles {
		if r.URL == path && (r.Method == "" || strings.EqualFold(r.Method, method)) {
			return true
		}
	}
	return false
}

type PGPermissions struct{ DB *pgxpool.Pool }

func (p *PGPermissions) GroupRoles(ctx context.Context, groupID int) ([]Role, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT r.id, r.url, r.method, r.description
		FROM roles r JOIN group_roles gr ON gr.role_id = r.id
		WHERE gr.group_id = $1
		ORDER BY r.id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Role{}
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.URL, &r.Method, &r.Description); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CachedPermissions keeps group roles in Redis for a few minutes. The wrapped store
// stays the source of truth: any Redis failure falls through to it.
type CachedPermissions struct {
	Next  PermissionStore
	Redis redis.Cmdable
	Log   *zap.Logger
}

func (c *CachedPermissions) GroupRoles(ctx context.Context, groupID int) ([]Role, error) {
	key := redisx.GroupRolesKey(groupID)
	if b, ok, err := redisx.GetBytes(ctx, c.Redis, key); err != nil {
		c.Log.Warn("permission cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var roles []Role
		if err := json.Unmarshal(b, &roles); err == nil {
			return roles, nil
		}
	}

	roles, err := c.Next.GroupRoles(ctx, groupID)
	if err != nil {
		return nil, err
	}
	b, _ := json.Marshal(roles)
	if err := c.Redis.Set(ctx, key, b, redisx.TTLGroupRoles).Err(); err != nil {
		c.Log.Warn("permission cache write failed", zap.String("key", key), zap.Error(err))
	}
	return roles, nil
}
