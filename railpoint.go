package railpoint

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint/api/adminapi"
	"github.com/railpoint/railpoint/fieldcipher"
	"github.com/railpoint/railpoint/internal/version"
	"github.com/railpoint/railpoint/storage/model"
	"github.com/railpoint/railpoint/upi"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if e, ok := err.(*fiber.Error); ok {
		fe = e
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).Error("unhandled error in request handler")
		return ctx.Status(code).JSON(ErrorServerError("internal server error"))
	}
	msg := err.Error()
	if fe != nil {
		msg = fe.Message
	}
	return ctx.Status(code).JSON(ErrorInvalidRequest(msg))
}

// Railpoint is the identifier issuance and resolution service. It owns
// the http server and wires the issuer, resolver and storage backends
// into the public and admin APIs.
type Railpoint struct {
	server     *fiber.App
	serverConf ServerConf
	storages   model.Backends
	issuer     *upi.Issuer
	resolver   *upi.Resolver
	limiter    *RateLimiter
}

// New creates a new Railpoint service. The authority signs and verifies
// identifiers, the cipher seals rail coordinates, and the directory is
// the read view of storage the resolver walks.
func New(
	serverConf ServerConf,
	storages model.Backends,
	authority *upi.Authority,
	cipher *fieldcipher.Cipher,
	directory upi.Directory,
	probe upi.ExistenceProbe,
	limiter *RateLimiter,
) (*Railpoint, error) {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New())
	server.Use(requestid.New())

	rp := &Railpoint{
		server:     server,
		serverConf: serverConf,
		storages:   storages,
		issuer:     &upi.Issuer{Authority: authority, Probe: probe},
		resolver:   &upi.Resolver{Authority: authority, Cipher: cipher, Directory: directory},
		limiter:    limiter,
	}

	server.Get(
		"/api/v1/status", func(ctx *fiber.Ctx) error {
			return ctx.JSON(fiber.Map{"status": "ok", "version": version.VERSION})
		},
	)

	rp.addEnrollEndpoint()
	rp.addResolveEndpoint()
	rp.addLookupEndpoints()
	rp.addOrganizationEndpoints()

	adminapi.Register(server.Group("/api/v1/admin"), storages)
	return rp, nil
}

// HttpHandlerFunc returns an http.HandlerFunc serving all endpoints
func (rp *Railpoint) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(rp.server)
}

// Listen starts an http server at the specific address
func (rp *Railpoint) Listen(addr string) error {
	return rp.server.Listen(addr)
}

// Start runs the service with the configured listen options, blocking
// until the server exits.
func (rp *Railpoint) Start() {
	conf := rp.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(rp.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(rp.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
