package railpoint

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/storage/model"
)

// masterPaymentIndex is the payment index reserved for owner-level
// identifiers. Organization accounts start at 1.
const masterPaymentIndex = 0

type enrollRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Profile  model.UserProfile `json:"profile"`
}

type enrollResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	MasterUPI string `json:"master_upi"`
}

// addEnrollEndpoint registers the public owner enrollment endpoint.
// Enrollment creates the account and mints its master identifier in one
// step; verification happens later through the admin API.
func (rp *Railpoint) addEnrollEndpoint() {
	rp.server.Post(
		"/api/v1/enroll", func(c *fiber.Ctx) error {
			var req enrollRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			req.Email = strings.TrimSpace(strings.ToLower(req.Email))
			if req.Email == "" || !strings.Contains(req.Email, "@") {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("a valid email is required"))
			}
			if len(req.Password) < 8 {
				return c.Status(fiber.StatusBadRequest).JSON(
					ErrorInvalidRequest("password must be at least 8 characters"),
				)
			}

			user, err := rp.storages.Users.Create(req.Email, req.Password, req.Profile)
			if err != nil {
				if _, ok := err.(model.AlreadyExistsError); ok {
					return c.Status(fiber.StatusConflict).JSON(ErrorConflict("email already registered"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
			}

			master, _, err := rp.issuer.IssueUnique(user.ID, masterPaymentIndex)
			if err != nil {
				log.WithError(err).WithField("user", user.ID).Error("failed to issue master UPI")
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError("could not issue master UPI"))
			}
			if err = rp.storages.Users.SetMasterUPI(user.ID, master); err != nil {
				log.WithError(err).WithField("user", user.ID).Error("failed to store master UPI")
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError("could not issue master UPI"))
			}

			return c.Status(fiber.StatusCreated).JSON(
				enrollResponse{
					ID:        user.ID,
					Email:     user.Email,
					MasterUPI: master,
				},
			)
		},
	)
}
