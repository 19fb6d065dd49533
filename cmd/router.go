package main

import (
	"github.com/gin-gonic/gin"

	"github.com/steliosk/authpool/internal/api"
)

func setupRouter(surface *api.API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	surface.Register(engine)

	return engine
}
