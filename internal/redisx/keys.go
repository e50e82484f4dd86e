package redisx

import (
	"fmt"
	"time"
)

const (
	// Roles of a group: perm:group:{group_id} -> JSON []Role
	KeyGroupRoles = "perm:group:%d"

	// Whole catalogue for GET /api/clothes/get?type=ALL
	KeyCatalog = "catalog:clothes"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLGroupRoles = 5 * time.Minute
	TTLCatalog    = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)

func GroupRolesKey(groupID int) string { return fmt.Sprintf(KeyGroupRoles, groupID) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
