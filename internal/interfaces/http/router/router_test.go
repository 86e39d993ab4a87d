package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_Setup(t *testing.T) {
	t.Run("default base path", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)
		assert.Equal(t, "/api", r.basePath)

		r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		}))
		r.Setup()

		w := serve(engine, http.MethodGet, "/api/test/ping")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})

	t.Run("custom base path and router middleware", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine, WithBasePath("/v2")).Use(func(c *gin.Context) {
			c.Header("X-Router", "yes")
			c.Next()
		})
		r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		}))
		r.Setup()

		w := serve(engine, http.MethodGet, "/v2/test/ping")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "yes", w.Header().Get("X-Router"))
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/test/ping").Code)
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("auth", "/auth")
		assert.Equal(t, "auth", g.Name())
		assert.Equal(t, "/auth", g.Prefix())
	})

	t.Run("routes by method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "list") })
		g.POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
		g.RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/test/items").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/test/items").Code)
	})

	t.Run("middleware is scoped to the group", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("guarded", "/guarded").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
		})
		g.GET("/secret", func(c *gin.Context) { c.Status(http.StatusOK) })
		open := NewDomainGroup("open", "/open")
		open.GET("/hello", func(c *gin.Context) { c.Status(http.StatusOK) })

		api := engine.Group("/api")
		g.RegisterRoutes(api)
		open.RegisterRoutes(api)

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/guarded/secret").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/open/hello").Code)
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("user", "/user")
		g.Group("lookup", "/lookup").GET("/:name", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("name"))
		})
		g.RegisterRoutes(engine.Group("/api"))

		w := serve(engine, http.MethodGet, "/api/user/lookup/jane")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jane", w.Body.String())
	})
}
