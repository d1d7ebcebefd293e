package cmd

import (
	"fmt"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/aurowora/compress"
	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"

	"github.com/rm-hull/telstra-messaging-api/internal"
	"github.com/rm-hull/telstra-messaging-api/internal/routes"
)

func ApiServer(dbPath string, port int, debug bool) error {

	app, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler, err := internal.StartCron(app.dispatcher, app.config.ReprovisionCron, app.logger)
	if err != nil {
		return errors.Wrap(err, "failed to start CRON jobs")
	}
	defer scheduler.Stop()

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
		compress.Compress(),
		cors.Default(),
	)

	if debug {
		app.logger.Warn().Msg("pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		app.repo.Check(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize healthcheck")
	}

	v1 := r.Group("/v1")
	v1.POST("/messages/sms", routes.SendSMS(app.dispatcher, app.logger))
	v1.POST("/messages/mms", routes.SendMMS(app.dispatcher, app.logger))
	v1.GET("/messages", routes.ListMessages(app.repo, app.logger))
	v1.POST("/provisioning", routes.Provision(app.dispatcher, app.logger))

	addr := fmt.Sprintf(":%d", port)
	app.logger.Info().Int("port", port).Msg("starting HTTP API server")
	if err := r.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "HTTP API server failed to start on port %d", port)
	}

	return nil
}
