// Package adminapi provides the operator-facing management API: owner
// verification, organization lifecycle, and service settings. It is
// mounted under its own route group and guarded by basic auth against
// admin accounts.
package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
)

// Register mounts all admin API routes under the provided group.
func Register(r fiber.Router, storages model.Backends) {
	r.Use(authMiddleware(storages.Users))

	registerUsers(r, storages.Users)
	registerOrganizations(r, storages.Organizations, storages.PaymentAccounts)
	registerChildren(r, storages.ChildUPIs)
	registerSettings(r, storages.KV)
}
