package http

import (
	"log"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/homehub-io/onvif-agent/machinery/src/components"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

func StartServer(configDirectory string, configuration *models.Configuration, communication *models.Communication, registry *components.CameraRegistry) {

	// Initialize REST API
	r := gin.Default()

	// Profiling
	pprof.Register(r)

	// Setup CORS
	r.Use(CORS())

	// The JWT middleware
	middleWare := JWTMiddleWare(configDirectory)
	authMiddleware, err := jwt.New(&middleWare)
	if err != nil {
		log.Fatal("JWT Error:" + err.Error())
	}

	// Add all routes
	AddRoutes(r, authMiddleware, configDirectory, configuration, communication, registry)

	// Run the api on port
	port := configuration.Config.Port
	if port == "" {
		port = "8080"
	}
	err = r.Run(":" + port)
	if err != nil {
		log.Fatal(err)
	}
}
