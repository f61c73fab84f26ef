package railpoint

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/storage/model"
	"github.com/railpoint/railpoint/upi"
)

type accountRequest struct {
	Rail        string `json:"rail"`
	BankName    string `json:"bank_name"`
	AccountName string `json:"account_name"`

	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	SwiftBIC      string `json:"swift_bic"`
	IBAN          string `json:"iban"`
	BankAddress   string `json:"bank_address"`
	BankCountry   string `json:"bank_country"`
	BankCity      string `json:"bank_city"`
}

type registerOrgRequest struct {
	LegalName    string           `json:"legal_name"`
	DBA          string           `json:"dba"`
	EIN          string           `json:"ein"`
	BusinessType string           `json:"business_type"`
	Industry     string           `json:"industry"`
	Website      string           `json:"website"`
	Description  string           `json:"description"`
	Country      string           `json:"country"`
	Address      model.OrgAddress `json:"address"`

	Accounts []accountRequest `json:"accounts"`
}

type registerOrgResponse struct {
	ID           string       `json:"id"`
	UPI          string       `json:"upi"`
	PaymentIndex int          `json:"payment_index"`
	Rails        []model.Rail `json:"rails"`
}

type createChildRequest struct {
	PaymentAccountID uint   `json:"payment_account_id"`
	Label            string `json:"label"`
}

type childStatusRequest struct {
	Status string `json:"status"`
}

// addOrganizationEndpoints registers organization and child-binding
// management. All routes require an authenticated, verified owner.
func (rp *Railpoint) addOrganizationEndpoints() {
	g := rp.server.Group("/api/v1/organizations", rp.requireUser(), rp.requireVerifiedUser())

	g.Post("/", rp.registerOrganization)
	g.Get(
		"/", func(c *fiber.Ctx) error {
			orgs, err := rp.storages.Organizations.ForUser(currentUser(c).ID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
			}
			return c.JSON(orgs)
		},
	)
	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			org := rp.ownedOrganization(c)
			if org == nil {
				return nil
			}
			return c.JSON(org)
		},
	)
	g.Post("/:id/children", rp.createChildUPI)
	g.Get(
		"/:id/children", func(c *fiber.Ctx) error {
			org := rp.ownedOrganization(c)
			if org == nil {
				return nil
			}
			children, err := rp.storages.ChildUPIs.ForOrganization(org.ID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
			}
			return c.JSON(children)
		},
	)

	rp.server.Put(
		"/api/v1/children/:upi/status", rp.requireUser(), rp.requireVerifiedUser(), rp.setChildStatus,
	)
}

// registerOrganization mints the organization's UPI and stores the org
// together with its payment accounts. The payment index is allocated
// per owner and never reused; coordinates are sealed before insert.
func (rp *Railpoint) registerOrganization(c *fiber.Ctx) error {
	user := currentUser(c)

	var req registerOrgRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
	}
	req.LegalName = strings.TrimSpace(req.LegalName)
	req.EIN = strings.TrimSpace(req.EIN)
	if req.LegalName == "" || req.EIN == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("legal_name and ein are required"))
	}
	if len(req.Accounts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("at least one payment account is required"))
	}

	type sealedAccount struct {
		rail      model.Rail
		bankName  string
		acctName  string
		sensitive map[string]string
	}
	seen := make(map[model.Rail]bool)
	accounts := make([]sealedAccount, 0, len(req.Accounts))
	for _, a := range req.Accounts {
		rail, err := model.ParseRail(a.Rail)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest(err.Error()))
		}
		if seen[rail] {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("duplicate rail " + a.Rail))
		}
		seen[rail] = true
		sensitive, err := sensitiveFieldsFor(rail, a)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest(err.Error()))
		}
		accounts = append(
			accounts, sealedAccount{rail: rail, bankName: a.BankName, acctName: a.AccountName, sensitive: sensitive},
		)
	}

	existing, err := rp.storages.Organizations.ByUserAndEIN(user.ID, req.EIN)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(ErrorConflict("an organization with this EIN is already registered"))
	}

	paymentIndex, err := rp.storages.PaymentAccounts.NextPaymentIndex(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	identifier, coreTag, err := rp.issuer.IssueUnique(user.ID, paymentIndex)
	if err != nil {
		log.WithError(err).WithField("user", user.ID).Error("failed to issue organization UPI")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError("could not issue UPI"))
	}

	address, err := json.Marshal(req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid address"))
	}
	org := &model.Organization{
		UserID:        user.ID,
		UPI:           identifier,
		ParentUPI:     user.MasterUPI,
		CoreEntityTag: coreTag,
		LegalName:     req.LegalName,
		DBA:           req.DBA,
		EIN:           req.EIN,
		BusinessType:  req.BusinessType,
		Industry:      req.Industry,
		Website:       req.Website,
		Description:   req.Description,
		Country:       req.Country,
		Address:       address,
	}
	if err = rp.storages.Organizations.Create(org); err != nil {
		if _, ok := err.(model.AlreadyExistsError); ok {
			return c.Status(fiber.StatusConflict).JSON(ErrorConflict(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}

	rails := make([]model.Rail, 0, len(accounts))
	for _, a := range accounts {
		account := &model.PaymentAccount{
			UserID:         user.ID,
			OrganizationID: org.ID,
			PaymentIndex:   paymentIndex,
			Rail:           a.rail,
			BankName:       a.bankName,
			AccountName:    a.acctName,
		}
		if err = rp.storages.PaymentAccounts.Create(account, a.sensitive); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
		}
		rails = append(rails, a.rail)
	}

	return c.Status(fiber.StatusCreated).JSON(
		registerOrgResponse{
			ID:           org.ID,
			UPI:          identifier,
			PaymentIndex: paymentIndex,
			Rails:        rails,
		},
	)
}

// sensitiveFieldsFor validates the rail-specific coordinates and returns
// the field map to be sealed.
func sensitiveFieldsFor(rail model.Rail, a accountRequest) (map[string]string, error) {
	sensitive := make(map[string]string)
	switch rail {
	case model.RailACH:
		if a.RoutingNumber == "" || a.AccountNumber == "" {
			return nil, errMissingFields("ACH requires routing_number and account_number")
		}
		sensitive[model.FieldACHRouting] = a.RoutingNumber
		sensitive[model.FieldACHAccount] = a.AccountNumber
	case model.RailWireDomestic:
		if a.RoutingNumber == "" || a.AccountNumber == "" {
			return nil, errMissingFields("WIRE_DOM requires routing_number and account_number")
		}
		sensitive[model.FieldWireRouting] = a.RoutingNumber
		sensitive[model.FieldWireAccount] = a.AccountNumber
		if a.BankAddress != "" {
			sensitive[model.FieldBankAddress] = a.BankAddress
		}
	case model.RailSWIFT:
		if a.SwiftBIC == "" || a.IBAN == "" {
			return nil, errMissingFields("SWIFT requires swift_bic and iban")
		}
		sensitive[model.FieldSwiftBIC] = a.SwiftBIC
		sensitive[model.FieldIBAN] = a.IBAN
		if a.BankAddress != "" {
			sensitive[model.FieldBankAddress] = a.BankAddress
		}
		if a.BankCountry != "" {
			sensitive[model.FieldBankCountry] = a.BankCountry
		}
		if a.BankCity != "" {
			sensitive[model.FieldBankCity] = a.BankCity
		}
	}
	return sensitive, nil
}

type errMissingFields string

func (e errMissingFields) Error() string { return string(e) }

// createChildUPI mints an additional identifier bound directly to one of
// the organization's payment accounts. The child carries the account's
// payment index so its signature verifies like any other identifier.
func (rp *Railpoint) createChildUPI(c *fiber.Ctx) error {
	user := currentUser(c)
	org := rp.ownedOrganization(c)
	if org == nil {
		return nil
	}

	var req createChildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
	}
	account, err := rp.storages.PaymentAccounts.ByID(req.PaymentAccountID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	if account == nil || account.OrganizationID != org.ID {
		return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("payment account not found"))
	}

	identifier, _, err := rp.issuer.IssueUnique(user.ID, account.PaymentIndex)
	if err != nil {
		log.WithError(err).WithField("organization", org.ID).Error("failed to issue child UPI")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError("could not issue UPI"))
	}
	child := &model.ChildUPI{
		UPI:              identifier,
		OrganizationID:   org.ID,
		PaymentAccountID: account.ID,
		Label:            req.Label,
	}
	if err = rp.storages.ChildUPIs.Create(child); err != nil {
		if _, ok := err.(model.AlreadyExistsError); ok {
			return c.Status(fiber.StatusConflict).JSON(ErrorConflict(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	return c.Status(fiber.StatusCreated).JSON(child)
}

// setChildStatus lets an owner enable or disable one of their child
// bindings without touching the underlying account.
func (rp *Railpoint) setChildStatus(c *fiber.Ctx) error {
	user := currentUser(c)
	identifier := upi.Normalize(c.Params("upi"))

	child, err := rp.storages.ChildUPIs.ByUPI(identifier)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	if child == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("child UPI not found"))
	}
	org, err := rp.storages.Organizations.ByID(child.OrganizationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	if org == nil || org.UserID != user.ID {
		return c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("child UPI not found"))
	}

	var req childStatusRequest
	if err = c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("invalid body"))
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil || (status != model.StatusActive && status != model.StatusDisabled) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorInvalidRequest("status must be active or disabled"))
	}
	if err = rp.storages.ChildUPIs.SetStatus(identifier, status); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
	}
	child.Status = status
	return c.JSON(child)
}

// ownedOrganization loads the :id organization and checks it belongs to
// the caller. Foreign organizations read as not found. On a nil return
// the error response has already been written.
func (rp *Railpoint) ownedOrganization(c *fiber.Ctx) *model.Organization {
	org, err := rp.storages.Organizations.ByID(c.Params("id"))
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
		return nil
	}
	if org == nil || org.UserID != currentUser(c).ID {
		_ = c.Status(fiber.StatusNotFound).JSON(ErrorNotFound("organization not found"))
		return nil
	}
	return org
}
