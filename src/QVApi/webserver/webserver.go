package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func New(db *gorm.DB, rdb *redis.Client, jwtSecret []byte) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	g.Use(cors.Default())

	auth := NewAuth(jwtSecret)
	claims := NewClaims(db, rdb)
	groups := NewGroups(db)

	g.GET("/v1/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	g.POST("/v1/auth/login", auth.Login)

	authed := g.Group("/v1", auth.Middleware())
	authed.GET("/groups", groups.List)
	authed.GET("/claims", claims.List)
	authed.GET("/claims/:id", claims.Get)
	authed.GET("/resolutions", claims.Resolutions)

	return g
}
