package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docledger/docledger/handlers"
	"github.com/docledger/docledger/internal/audit"
	"github.com/docledger/docledger/internal/config"
	"github.com/docledger/docledger/internal/contentstore"
	"github.com/docledger/docledger/internal/database"
	"github.com/docledger/docledger/internal/oidc"
	"github.com/docledger/docledger/internal/registry"
	"github.com/docledger/docledger/internal/registry/handler"
	"github.com/docledger/docledger/internal/registry/repository"
	"github.com/docledger/docledger/internal/tokens"
	"github.com/docledger/docledger/pkg/logger"
	"github.com/docledger/docledger/pkg/metrics"
	"github.com/docledger/docledger/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first; controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: owner=%s mongo=%v redis=%v keycloak=%v", cfg.Registry.Owner, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Keycloak.URL != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for dev/test; production deployments sit behind a
	// stricter gateway policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis backs the audit stream and the distributed rate limiter.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Document store: Mongo when configured, memory otherwise. Retry with
	// backoff to tolerate startup races against the database container.
	var store registry.Store = repository.NewMemoryStore()
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts, falling back to memory store: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			col := mongoClient.Database(cfg.MongoDB.Database).Collection("documents")
			store = repository.NewMongoStore(col)
			logger.Infof("using MongoDB document store (db=%s)", cfg.MongoDB.Database)
		}
	}

	// Audit sink: Redis stream when available, service log otherwise.
	var sink audit.Sink = audit.NewLogSink()
	if rdb != nil {
		sink = audit.NewRedisSink(rdb, cfg.Registry.AuditStream)
		logger.Infof("audit entries go to Redis stream %q", cfg.Registry.AuditStream)
	}

	reg := registry.New(cfg.Registry.Owner, store, sink)

	// Optional content-addressed object store collaborator.
	var content handler.ContentStore
	csCfg := contentstore.LoadConfig()
	if csCfg.Endpoint != "" {
		cs, err := contentstore.New(csCfg)
		if err != nil {
			logger.Warnf("content store unavailable: %v", err)
		} else {
			content = cs
			if cfg.Registry.VerifyContent {
				logger.Infof("content hash verification enabled (bucket=%s)", csCfg.Bucket)
			}
		}
	}

	// Caller identity: OIDC provider when configured, shared-secret JWT as
	// fallback, insecure parsing only under explicit opt-in for integration
	// tests.
	var verifier middleware.Verifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" && cfg.Keycloak.Realm != "" {
		issuer := strings.TrimRight(cfg.Keycloak.URL, "/") + "/realms/" + cfg.Keycloak.Realm
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = tokens.NewVerifier(cfg.JWT.Secret)
		logger.Infof("using shared-secret JWT verifier")
	}
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}

	h := handler.New(reg, content, cfg.Registry.VerifyContent, cfg.Registry.PresignTTL)
	if verifier != nil {
		h.Register(r.Group("/", middleware.AuthMiddleware(verifier)))
	} else {
		logger.Warnf("no token verifier configured; mutating operations will be rejected")
		h.Register(r.Group("/"))
	}

	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: report per-dependency state, fail when a configured
	// dependency is down
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["store"] = store != nil
		if cfg.MongoDB.URI != "" {
			deps["mongodb"] = mongoClient != nil
			if !deps["mongodb"] {
				ready = false
			}
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = rdb != nil
			if !deps["redis"] {
				ready = false
			}
		}
		deps["auth"] = verifier != nil

		status := gin.H{"deps": deps, "paused": reg.Paused(), "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting registry service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
