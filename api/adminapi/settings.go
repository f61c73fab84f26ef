package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
)

type rateLimitSettings struct {
	LookupLimit   *int `json:"lookup_limit,omitempty"`
	ResolveLimit  *int `json:"resolve_limit,omitempty"`
	WindowSeconds *int `json:"window_seconds,omitempty"`
}

// registerSettings wires runtime-adjustable service settings stored in
// the key-value store. Values set here override the static configuration
// without a restart.
func registerSettings(r fiber.Router, kv model.KeyValueStore) {
	g := r.Group("/settings")

	g.Get("/ratelimit", func(c *fiber.Ctx) error {
		var settings rateLimitSettings
		for key, target := range map[string]**int{
			model.KeyValueKeyLookupLimit:  &settings.LookupLimit,
			model.KeyValueKeyResolveLimit: &settings.ResolveLimit,
			model.KeyValueKeyWindow:       &settings.WindowSeconds,
		} {
			var v int
			found, err := kv.GetAs(model.KeyValueScopeRateLimit, key, &v)
			if err != nil {
				return serverError(c, err)
			}
			if found {
				*target = &v
			}
		}
		return c.JSON(settings)
	})

	g.Put("/ratelimit", func(c *fiber.Ctx) error {
		var req rateLimitSettings
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		for key, value := range map[string]*int{
			model.KeyValueKeyLookupLimit:  req.LookupLimit,
			model.KeyValueKeyResolveLimit: req.ResolveLimit,
			model.KeyValueKeyWindow:       req.WindowSeconds,
		} {
			if value == nil {
				continue
			}
			if *value <= 0 {
				return invalidRequest(c, "limits must be positive")
			}
			if err := kv.SetAny(model.KeyValueScopeRateLimit, key, *value); err != nil {
				return serverError(c, err)
			}
		}
		return c.JSON(req)
	})
}
