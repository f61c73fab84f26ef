package adminapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
)

// registerOrganizations wires organization verification and lifecycle
// management plus payment account disabling.
func registerOrganizations(r fiber.Router, orgs model.OrganizationsStore, accounts model.PaymentAccountsStore) {
	g := r.Group("/organizations")

	g.Get("/:id", func(c *fiber.Ctx) error {
		org, err := orgs.ByID(c.Params("id"))
		if err != nil {
			return serverError(c, err)
		}
		if org == nil {
			return notFound(c, "organization not found")
		}
		return c.JSON(org)
	})

	type verificationReq struct {
		Status string `json:"status"`
	}
	g.Put("/:id/verification", func(c *fiber.Ctx) error {
		var req verificationReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		status, err := model.ParseVerificationStatus(req.Status)
		if err != nil {
			return invalidRequest(c, err.Error())
		}
		if err = orgs.SetVerificationStatus(c.Params("id"), status); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "organization not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	type statusReq struct {
		Status string `json:"status"`
	}
	g.Put("/:id/status", func(c *fiber.Ctx) error {
		var req statusReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			return invalidRequest(c, err.Error())
		}
		if err = orgs.SetStatus(c.Params("id"), status); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "organization not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	a := r.Group("/accounts")
	a.Put("/:id/status", func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return invalidRequest(c, "invalid account id")
		}
		var req statusReq
		if err = c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			return invalidRequest(c, err.Error())
		}
		if err = accounts.SetStatus(uint(id), status); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "payment account not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// registerChildren wires admin-side child binding lifecycle management.
func registerChildren(r fiber.Router, children model.ChildUPIStore) {
	g := r.Group("/children")

	type statusReq struct {
		Status string `json:"status"`
	}
	g.Put("/:upi/status", func(c *fiber.Ctx) error {
		var req statusReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			return invalidRequest(c, err.Error())
		}
		if err = children.SetStatus(c.Params("upi"), status); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "child UPI not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
