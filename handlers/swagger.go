package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the registry.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>docledger — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the registry endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "docledger", "version": "v0.1.0" },
  "paths": {
    "/api/registry/documents": {
      "post": {
        "summary": "Append a document record to the caller's sequence",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"contentHash":{"type":"string"},"title":{"type":"string"},"description":{"type":"string"},"tags":{"type":"string"}}}}}},
        "responses": { "201": { "description": "record appended" }, "400": { "description": "invalid argument" }, "503": { "description": "registry suspended" } }
      }
    },
    "/api/registry/owners/{owner}/documents": {
      "get": { "summary": "Count an owner's documents", "parameters": [{"name":"owner","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "document count" } } }
    },
    "/api/registry/owners/{owner}/documents/{index}": {
      "get": { "summary": "Read the document at a zero-based index", "parameters": [{"name":"owner","in":"path","required":true,"schema":{"type":"string"}},{"name":"index","in":"path","required":true,"schema":{"type":"integer","minimum":0,"maximum":255}}], "responses": { "200": { "description": "document fields" }, "404": { "description": "no record at index" } } }
    },
    "/api/registry/emergency-stop": {
      "post": { "summary": "Toggle the registry pause switch (registry owner only)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"stop":{"type":"boolean"}}}}}}, "responses": { "200": { "description": "pause state updated" }, "403": { "description": "caller is not the registry owner" } } }
    }
  }
}`
