package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
)

// registerUsers wires owner account management using a UsersStore
// abstraction.
func registerUsers(r fiber.Router, users model.UsersStore) {
	g := r.Group("/users")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := users.List()
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(list)
	})

	type createReq struct {
		Email    string            `json:"email"`
		Password string            `json:"password"`
		Profile  model.UserProfile `json:"profile"`
		Admin    bool              `json:"admin"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		if req.Email == "" || req.Password == "" {
			return invalidRequest(c, "email and password are required")
		}
		u, err := users.Create(req.Email, req.Password, req.Profile)
		if err != nil {
			if _, ok := err.(model.AlreadyExistsError); ok {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "error_description": "user already exists"})
			}
			return serverError(c, err)
		}
		if req.Admin {
			admin := true
			if u, err = users.Update(req.Email, nil, nil, nil, &admin); err != nil {
				return serverError(c, err)
			}
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	})

	type updateReq struct {
		Profile  *model.UserProfile `json:"profile"`
		Password *string            `json:"password"`
		Disabled *bool              `json:"disabled"`
		Admin    *bool              `json:"admin"`
	}
	g.Put("/:email", func(c *fiber.Ctx) error {
		var req updateReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		u, err := users.Update(c.Params("email"), req.Profile, req.Password, req.Disabled, req.Admin)
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.JSON(u)
	})

	g.Get("/:email", func(c *fiber.Ctx) error {
		u, err := users.Get(c.Params("email"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.JSON(u)
	})

	g.Delete("/:email", func(c *fiber.Ctx) error {
		if err := users.Delete(c.Params("email")); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	type verificationReq struct {
		Status string `json:"status"`
	}
	g.Put("/:email/verification", func(c *fiber.Ctx) error {
		var req verificationReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		status, err := model.ParseVerificationStatus(req.Status)
		if err != nil {
			return invalidRequest(c, err.Error())
		}
		u, err := users.Get(c.Params("email"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		if err = users.SetVerificationStatus(u.ID, status); err != nil {
			return serverError(c, err)
		}
		u.VerificationStatus = status
		return c.JSON(u)
	})
}

func invalidRequest(c *fiber.Ctx, description string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": description})
}

func notFound(c *fiber.Ctx, description string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "error_description": description})
}

func serverError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "error_description": err.Error()})
}
