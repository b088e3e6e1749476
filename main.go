package main

import (
	"context"
	"flag"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"salesinsight/internal/config"
	"salesinsight/internal/db"
	"salesinsight/internal/http/handlers"
	appmw "salesinsight/internal/http/middleware"
	"salesinsight/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	envPath := flag.String("env", "", "directory holding .env files")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		panic(err)
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "salesinsight"},
	}); err != nil {
		panic(err)
	}
	defer logger.Flush(2 * time.Second)

	handlers.InitPrometheusMetrics()

	store, err := db.Connect(cfg, db.WithQueryObserver(handlers.DashboardObserver()))
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	logger.Info("database ready", zap.String("dialect", store.Dialect().Name()))

	if cfg.Seed {
		seeded, err := db.SeedIfEmpty(context.Background(), store, db.DefaultSeedCounts, uint64(time.Now().UnixNano()))
		if err != nil {
			logger.Fatal("failed to seed database", zap.Error(err))
		}
		logger.Info("seed finished", zap.Bool("seeded", seeded))
	}

	adminAuth, err := appmw.AdminAuth(cfg)
	if err != nil {
		logger.Fatal("failed to configure admin auth", zap.Error(err))
	}

	r := router.New()
	r.SaveMatchedRoutePath = true

	handler := handlers.RequestLogger(r.Handler)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})
	r.GET("/metrics", handlers.MetricsHandler())

	r.GET("/v1/dashboard", handlers.Dashboard(store))
	r.GET("/v1/sales", handlers.SalesListing(store))
	r.GET("/v1/sales/export", handlers.SalesExport(store))
	r.GET("/v1/views", handlers.ViewsListing(store))
	r.GET("/v1/products", handlers.ProductsListing(store))
	r.GET("/v1/products/{id}", handlers.GetProduct(store))
	r.GET("/v1/customers/{id}", handlers.GetCustomer(store))

	r.POST("/v1/products", adminAuth(handlers.CreateProduct(store)))
	r.POST("/v1/products/{id}", adminAuth(handlers.UpdateProduct(store)))
	r.POST("/v1/products/{id}/delete", adminAuth(handlers.DeleteProduct(store)))

	r.POST("/v1/customers", adminAuth(handlers.CreateCustomer(store)))
	r.POST("/v1/customers/{id}", adminAuth(handlers.UpdateCustomer(store)))
	r.POST("/v1/customers/{id}/delete", adminAuth(handlers.DeleteCustomer(store)))

	r.POST("/v1/sales", adminAuth(handlers.RecordSale(store)))
	r.POST("/v1/views", adminAuth(handlers.RecordView(store)))

	logger.Info("salesinsight listening", zap.String("addr", cfg.ListenAddr))
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
