package railpoint

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
	"github.com/railpoint/railpoint/upi"
)

type lookupRequest struct {
	UPI string `json:"upi"`
}

type lookupResponse struct {
	UPI        string `json:"upi"`
	EntityType string `json:"entity_type"`
	// Owner profile, present for master identifiers
	CompanyName     string `json:"company_name,omitempty"`
	Summary         string `json:"summary,omitempty"`
	EstablishedYear int    `json:"established_year,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`
	// Organization data, present for organization and child identifiers
	LegalName string `json:"legal_name,omitempty"`
	DBA       string `json:"dba,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Website   string `json:"website,omitempty"`
	Label     string `json:"label,omitempty"`
}

// addLookupEndpoints registers the public-profile lookup endpoints.
// Lookups never return payout coordinates; they answer "who is behind
// this identifier" for verified entities only.
func (rp *Railpoint) addLookupEndpoints() {
	rp.server.Post(
		"/api/v1/upi/lookup",
		rp.limiter.Middleware(RateLimitScopeLookup),
		rp.requireUser(),
		func(c *fiber.Ctx) error {
			var req lookupRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
			}
			identifier := upi.Normalize(req.UPI)
			if _, err := upi.Decode(identifier); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest(err.Error()))
			}
			res, err := rp.lookup(identifier)
			if err != nil {
				return writeResolveError(c, err)
			}
			return c.JSON(res)
		},
	)

	type masterResponse struct {
		lookupResponse
		Organizations []model.Organization `json:"organizations"`
	}
	rp.server.Get(
		"/api/v1/upi/master",
		rp.requireUser(),
		func(c *fiber.Ctx) error {
			user := currentUser(c)
			if user.MasterUPI == "" {
				return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("no master UPI issued"))
			}
			orgs, err := rp.storages.Organizations.ForUser(user.ID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
			}
			return c.JSON(
				masterResponse{
					lookupResponse: lookupResponse{
						UPI:             user.MasterUPI,
						EntityType:      "owner",
						CompanyName:     user.CompanyName,
						Summary:         user.Summary,
						EstablishedYear: user.EstablishedYear,
						State:           user.State,
						Country:         user.Country,
					},
					Organizations: orgs,
				},
			)
		},
	)
}

// lookup classifies an identifier as an owner master, an organization, or
// a child binding, and returns its public profile. Unverified or disabled
// entities look identical to absent ones.
func (rp *Railpoint) lookup(identifier string) (*lookupResponse, error) {
	owner, err := rp.storages.Users.ByMasterUPI(identifier)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		if !owner.Verified() {
			return nil, upi.NotFoundError("UPI not found")
		}
		return &lookupResponse{
			UPI:             identifier,
			EntityType:      "owner",
			CompanyName:     owner.CompanyName,
			Summary:         owner.Summary,
			EstablishedYear: owner.EstablishedYear,
			State:           owner.State,
			Country:         owner.Country,
		}, nil
	}

	org, err := rp.storages.Organizations.ByUPI(identifier)
	if err != nil {
		return nil, err
	}
	if org != nil {
		return rp.organizationLookup(identifier, "organization", org, "")
	}

	child, err := rp.storages.ChildUPIs.ByUPI(identifier)
	if err != nil {
		return nil, err
	}
	if child != nil {
		if child.Status != model.StatusActive {
			return nil, upi.GoneError("UPI is disabled")
		}
		org, err = rp.storages.Organizations.ByID(child.OrganizationID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return nil, upi.NotFoundError("UPI not found")
		}
		return rp.organizationLookup(identifier, "child", org, child.Label)
	}

	return nil, upi.NotFoundError("UPI not found")
}

func (rp *Railpoint) organizationLookup(
	identifier, entityType string, org *model.Organization, label string,
) (*lookupResponse, error) {
	if !org.Resolvable() {
		return nil, upi.NotFoundError("UPI not found")
	}
	owner, err := rp.storages.Users.ByID(org.UserID)
	if err != nil {
		return nil, err
	}
	if !owner.Verified() {
		return nil, upi.NotFoundError("UPI not found")
	}
	return &lookupResponse{
		UPI:        identifier,
		EntityType: entityType,
		LegalName:  org.LegalName,
		DBA:        org.DBA,
		Industry:   org.Industry,
		Website:    org.Website,
		Country:    org.Country,
		Label:      label,
	}, nil
}
