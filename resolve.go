package railpoint

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/storage/model"
	"github.com/railpoint/railpoint/upi"
)

type resolveRequest struct {
	UPI  string `json:"upi"`
	Rail string `json:"rail"`
}

type resolveResponse struct {
	UPI          string          `json:"upi"`
	Rail         model.Rail      `json:"rail"`
	LegalName    string          `json:"legal_name"`
	PaymentIndex int             `json:"payment_index"`
	Coordinates  upi.Coordinates `json:"coordinates"`
}

// addResolveEndpoint registers the resolution endpoint. Callers must be
// authenticated and verified; the engine then enforces format, signature,
// ownership and lifecycle gates on the target identifier.
func (rp *Railpoint) addResolveEndpoint() {
	rp.server.Post(
		"/api/v1/resolve",
		rp.limiter.Middleware(RateLimitScopeResolve),
		rp.requireUser(),
		rp.requireVerifiedUser(),
		func(c *fiber.Ctx) error {
			var req resolveRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			if req.UPI == "" {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("required parameter 'upi' not given"))
			}
			rail, err := model.ParseRail(req.Rail)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest(err.Error()))
			}

			res, err := rp.resolver.Resolve(req.UPI, rail)
			if err != nil {
				return writeResolveError(c, err)
			}
			return c.JSON(
				resolveResponse{
					UPI:          res.UPI,
					Rail:         res.Rail,
					LegalName:    res.Organization.LegalName,
					PaymentIndex: res.Parts.PaymentIndex,
					Coordinates:  res.Coordinates,
				},
			)
		},
	)
}

// writeResolveError maps the engine's typed errors to http statuses. A
// signature mismatch is deliberately reported as a plain not-found so the
// response does not confirm that the identifier is structurally close to
// a real one.
func writeResolveError(c *fiber.Ctx, err error) error {
	switch err.(type) {
	case upi.FormatError:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest(err.Error()))
	case upi.NotFoundError:
		return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("UPI not found"))
	case upi.SignatureError:
		return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("UPI not found"))
	case upi.GoneError:
		return c.Status(fiber.StatusGone).JSON(ErrorGone(err.Error()))
	default:
		log.WithError(err).Error("resolution failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError("internal server error"))
	}
}
