package railpoint

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/railpoint/railpoint/storage/model"
)

const localsUserKey = "railpoint.user"

// requireUser enforces HTTP Basic authentication against the users store
// and stashes the authenticated user in the request locals.
func (rp *Railpoint) requireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, password, ok := parseBasicAuth(c)
		if !ok {
			c.Set("WWW-Authenticate", "Basic realm=railpoint")
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorUnauthorized("missing credentials"))
		}
		user, err := rp.storages.Users.Authenticate(email, password)
		if err != nil {
			c.Set("WWW-Authenticate", "Basic realm=railpoint")
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorUnauthorized("invalid credentials"))
		}
		c.Locals(localsUserKey, user)
		return c.Next()
	}
}

// requireVerifiedUser additionally gates on the caller's verification
// status. Unverified callers cannot mint or resolve identifiers.
func (rp *Railpoint) requireVerifiedUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorUnauthorized("missing credentials"))
		}
		if !user.Verified() {
			return c.Status(fiber.StatusForbidden).JSON(ErrorForbidden("account is not verified"))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(localsUserKey).(*model.User)
	return user
}

// parseBasicAuth extracts Basic auth credentials from request headers
func parseBasicAuth(c *fiber.Ctx) (username, password string, ok bool) {
	auth := string(c.Request().Header.Peek("Authorization"))
	if auth == "" {
		return "", "", false
	}
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", false
	}
	b, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(b)
	i := strings.IndexByte(creds, ':')
	if i < 0 {
		return "", "", false
	}
	return creds[:i], creds[i+1:], true
}
