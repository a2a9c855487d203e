package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/docledger/docledger/internal/audit"
	"github.com/docledger/docledger/internal/oidc"
	"github.com/docledger/docledger/internal/registry"
	"github.com/docledger/docledger/internal/registry/handler"
	"github.com/docledger/docledger/internal/registry/repository"
	"github.com/docledger/docledger/pkg/middleware"
)

// Standalone registry for local development: memory store, log audit sink,
// unverified token parsing. Not for production use.
func main() {
	port := os.Getenv("REGISTRY_SERVICE_PORT")
	if port == "" {
		port = "5021"
	}
	owner := os.Getenv("REGISTRY_OWNER")
	if owner == "" {
		owner = "registry-admin"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	reg := registry.New(owner, repository.NewMemoryStore(), audit.NewLogSink())
	h := handler.New(reg, nil, false, 0)
	h.Register(r.Group("/", middleware.AuthMiddleware(oidc.NewInsecureVerifier())))

	log.Printf("registry service (standalone) listening on :%s owner=%s", port, owner)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
