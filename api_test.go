package railpoint

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
	"github.com/railpoint/railpoint/upi"
)

func TestSensitiveFieldsFor(t *testing.T) {
	full := accountRequest{
		RoutingNumber: "021000021",
		AccountNumber: "000123456789",
		SwiftBIC:      "CHASUS33",
		IBAN:          "DE89370400440532013000",
		BankAddress:   "1 Main St",
		BankCountry:   "US",
		BankCity:      "New York",
	}

	ach, err := sensitiveFieldsFor(model.RailACH, full)
	if err != nil {
		t.Fatalf("ACH: %v", err)
	}
	if len(ach) != 2 || ach[model.FieldACHRouting] != "021000021" || ach[model.FieldACHAccount] != "000123456789" {
		t.Errorf("ACH fields = %v", ach)
	}

	wire, err := sensitiveFieldsFor(model.RailWireDomestic, full)
	if err != nil {
		t.Fatalf("WIRE_DOM: %v", err)
	}
	if wire[model.FieldWireRouting] != "021000021" || wire[model.FieldBankAddress] != "1 Main St" {
		t.Errorf("WIRE_DOM fields = %v", wire)
	}
	// ACH field names never leak into the wire map.
	if _, ok := wire[model.FieldACHRouting]; ok {
		t.Error("WIRE_DOM map contains ACH fields")
	}

	swift, err := sensitiveFieldsFor(model.RailSWIFT, full)
	if err != nil {
		t.Fatalf("SWIFT: %v", err)
	}
	if len(swift) != 5 || swift[model.FieldSwiftBIC] != "CHASUS33" || swift[model.FieldIBAN] != full.IBAN {
		t.Errorf("SWIFT fields = %v", swift)
	}

	if _, err = sensitiveFieldsFor(model.RailACH, accountRequest{RoutingNumber: "021000021"}); err == nil {
		t.Error("ACH without account number accepted")
	}
	if _, err = sensitiveFieldsFor(model.RailSWIFT, accountRequest{SwiftBIC: "CHASUS33"}); err == nil {
		t.Error("SWIFT without IBAN accepted")
	}
}

func TestWriteResolveErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
	}{
		{upi.FormatError("invalid UPI format"), fiber.StatusBadRequest},
		{upi.NotFoundError("UPI not found"), fiber.StatusNotFound},
		{upi.SignatureError("UPI signature mismatch"), fiber.StatusNotFound},
		{upi.GoneError("UPI is disabled"), fiber.StatusGone},
		{upi.ConfigurationError("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := fiber.New()
		err := tc.err
		app.Get("/", func(c *fiber.Ctx) error { return writeResolveError(c, err) })
		resp, rerr := app.Test(httptest.NewRequest("GET", "/", nil))
		if rerr != nil {
			t.Fatalf("app.Test failed: %v", rerr)
		}
		if resp.StatusCode != tc.wantStatus {
			t.Errorf("%T mapped to %d, want %d", tc.err, resp.StatusCode, tc.wantStatus)
		}
	}
}

func TestRateLimiterLocalWindow(t *testing.T) {
	limiter := NewRateLimiter(
		RateLimitConf{
			Enabled:       true,
			LookupLimit:   3,
			WindowSeconds: 60,
		}, nil,
	)
	app := fiber.New()
	app.Get("/", limiter.Middleware(RateLimitScopeLookup), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("app.Test failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d limited too early: %d", i+1, resp.StatusCode)
		}
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("request over limit returned %d", resp.StatusCode)
	}
	if resp.Header.Get(fiber.HeaderRetryAfter) == "" {
		t.Error("429 response misses Retry-After")
	}
}

func TestRateLimiterDisabledPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConf{Enabled: false, LookupLimit: 1}, nil)
	app := fiber.New()
	app.Get("/", limiter.Middleware(RateLimitScopeLookup), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatalf("app.Test failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("disabled limiter throttled request %d", i+1)
		}
	}
}
