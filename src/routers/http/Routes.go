package http

import (
	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"

	"github.com/homehub-io/onvif-agent/machinery/src/components"
	configService "github.com/homehub-io/onvif-agent/machinery/src/config"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

func AddRoutes(r *gin.Engine, authMiddleware *jwt.GinJWTMiddleware, configDirectory string, configuration *models.Configuration, communication *models.Communication, registry *components.CameraRegistry) *gin.RouterGroup {
	api := r.Group("/api")
	{
		api.POST("/login", authMiddleware.LoginHandler)

		api.GET("/restart", func(c *gin.Context) {
			communication.HandleBootstrap <- "restart"
			c.JSON(200, gin.H{
				"restarted": true,
			})
		})

		api.GET("/stop", func(c *gin.Context) {
			communication.HandleBootstrap <- "stop"
			c.JSON(200, gin.H{
				"stopped": true,
			})
		})

		api.Use(authMiddleware.MiddlewareFunc())
		{
			// Secured endpoints..
			api.GET("/config", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"config": configuration.Config,
					"custom": configuration.CustomConfig,
					"global": configuration.GlobalConfig,
				})
			})

			api.POST("/config", func(c *gin.Context) {
				var newConfig models.Config
				if err := c.BindJSON(&newConfig); err != nil {
					c.JSON(400, models.APIResponse{
						Message: "Something went wrong: " + err.Error(),
					})
					return
				}
				if err := configService.SaveConfig(configDirectory, newConfig, configuration, communication); err != nil {
					c.JSON(400, models.APIResponse{
						Message: "Something went wrong: " + err.Error(),
					})
					return
				}
				c.JSON(200, models.APIResponse{
					Data: "Configuration saved, the agent is restarting.",
				})
			})

			api.GET("/cameras", GetCameras(registry))
			api.GET("/cameras/:key/stream", GetCameraStream(registry))
			api.POST("/cameras/ptz", DoPTZ(registry))
			api.POST("/camera/onvif/verify", VerifyOnvif)
		}
	}
	return api
}
