package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ougirez/boptest/internal/api/controller"
	"github.com/ougirez/boptest/internal/pkg/cache"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/logger"
	"github.com/ougirez/boptest/internal/pkg/store"
	"github.com/ougirez/boptest/internal/service/facets"
	"github.com/ougirez/boptest/internal/service/results"
	"github.com/spf13/viper"
)

type APIService struct {
	router         *echo.Echo
	facetsService  *facets.Service
	resultsService *results.Service
}

func (svc *APIService) Serve(addr string) error {
	logger.Infof(context.Background(), "listening on %s", addr)
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func (svc *APIService) Handler() http.Handler {
	return svc.router
}

func NewAPIService(store store.Store, facetCache cache.FacetCache) (*APIService, error) {
	svc := &APIService{}

	svc.facetsService = facets.NewFacetsService(store, facetCache)
	svc.resultsService = results.NewResultsService(store, svc.facetsService, results.Options{
		PageSize:          viper.GetInt(constants.ViperPageSizeKey),
		MaxPageSize:       viper.GetInt(constants.ViperMaxPageSizeKey),
		IngestConcurrency: viper.GetInt(constants.ViperIngestConcurrency),
	})

	svc.router = svc.newRouter(controller.NewController(svc.resultsService, svc.facetsService, store))
	return svc, nil
}

func (svc *APIService) newRouter(cntrl *controller.Controller) *echo.Echo {
	router := echo.New()

	router.HideBanner = true
	router.Logger.SetLevel(echoLogLevel(viper.GetString(constants.ViperLogLevelKey)))
	router.JSONSerializer = sonicSerializer{}
	router.Validator = NewValidator()
	router.Binder = NewBinder()
	router.HTTPErrorHandler = httpErrorHandler
	router.Use(middleware.Recover())
	router.Use(svc.RequestContextMiddleware)
	router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     viper.GetStringSlice(constants.ViperCORSOriginsKey),
		AllowMethods:     []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, constants.HeaderRequestID},
		AllowCredentials: true,
	}))

	registerRoutes(router, cntrl, svc.AuthMiddleware)
	return router
}

func registerRoutes(router *echo.Echo, cntrl *controller.Controller, auth echo.MiddlewareFunc) {
	router.GET("/healthz", cntrl.Health)

	api := router.Group("/api/v1")
	api.GET("/healthz", cntrl.Health)

	res := api.Group("/results")
	res.POST("", cntrl.CreateResults, auth)
	res.GET("/shared", cntrl.ListSharedResults)
	res.GET("/mine", cntrl.ListMyResults, auth)
	res.GET("/:uid", cntrl.GetResult)
	res.GET("/:uid/signature", cntrl.GetSignatureDetails)
	res.PATCH("/:id/share", cntrl.ToggleShare, auth)
	res.DELETE("/:id", cntrl.DeleteResult, auth)

	fcts := api.Group("/facets")
	fcts.GET("", cntrl.ListFacets)
	fcts.GET("/:uid", cntrl.GetFacet)
}

func echoLogLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error", "fatal":
		return log.ERROR
	}
	return log.INFO
}
