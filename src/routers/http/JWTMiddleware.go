package http

import (
	"net/http"
	"os"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	jwtgo "github.com/golang-jwt/jwt/v4"

	"github.com/homehub-io/onvif-agent/machinery/src/config"
	"github.com/homehub-io/onvif-agent/machinery/src/models"
)

func JWTMiddleWare(configDirectory string) jwt.GinJWTMiddleware {

	identityKey := "id"
	myKey := os.Getenv("AGENT_JWT_SECRET")
	if myKey == "" {
		myKey = "TOBECHANGED"
	}

	m := jwt.GinJWTMiddleware{
		Realm:       "homehub",
		Key:         []byte(myKey),
		Timeout:     time.Hour * 24,
		MaxRefresh:  time.Hour * 24 * 7,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if v, ok := data.(*models.User); ok {
				return jwt.MapClaims{
					identityKey: v,
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(c *gin.Context) interface{} {
			claims := jwt.ExtractClaims(c)
			user := claims["id"].(map[string]interface{})
			return &models.User{
				Username: user["username"].(string),
				Role:     user["role"].(string),
			}
		},
		Authenticator: func(c *gin.Context) (interface{}, error) {
			var loginVals models.Authentication
			if err := c.ShouldBind(&loginVals); err != nil {
				return "", jwt.ErrMissingLoginValues
			}
			username := loginVals.Username
			password := loginVals.Password

			// The user configuration wins over the environment, which in
			// turn wins over the factory default.
			expectedUsername := "root"
			expectedPassword := "root"
			if value := os.Getenv("AGENT_USERNAME"); value != "" {
				expectedUsername = value
			}
			if value := os.Getenv("AGENT_PASSWORD"); value != "" {
				expectedPassword = value
			}
			if userConfig := readUserConfigOnce(configDirectory); userConfig.Username != "" {
				expectedUsername = userConfig.Username
				expectedPassword = userConfig.Password
			}

			if username == expectedUsername && password == expectedPassword {
				return &models.User{
					Username: username,
					Role:     "admin",
				}, nil
			}
			return nil, jwt.ErrFailedAuthentication
		},
		LoginResponse: func(c *gin.Context, code int, token string, expire time.Time) {

			// Decrypt the token
			hmacSecret := []byte(myKey)
			t, _ := jwtgo.Parse(token, func(token *jwtgo.Token) (interface{}, error) {
				return hmacSecret, nil
			})

			// Get the claims
			claims, _ := t.Claims.(jwtgo.MapClaims)
			user := claims["id"].(map[string]interface{})

			c.JSON(http.StatusOK, models.Authorization{
				Code:     http.StatusOK,
				Token:    token,
				Expire:   expire.Format(time.RFC3339),
				Username: user["username"].(string),
				Role:     user["role"].(string),
			})
		},
		Authorizator: func(data interface{}, c *gin.Context) bool {
			if _, ok := data.(*models.User); ok {
				return true
			}
			return false
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.AbortWithStatusJSON(code, gin.H{
				"code":    code,
				"message": message,
			})
		},
		// TokenLookup is a string in the form of "<source>:<name>" that is used
		// to extract token from the request.
		TokenLookup: "header: Authorization, query: token, cookie: jwt",

		// TokenHeadName is a string in the header. Default value is "Bearer"
		TokenHeadName: "Bearer",

		TimeFunc: time.Now,
	}
	return m
}

var cachedUserConfig *models.User

// readUserConfigOnce reads user.json the first time it is needed. A missing
// file simply means the environment or factory credentials apply.
func readUserConfigOnce(configDirectory string) models.User {
	if cachedUserConfig != nil {
		return *cachedUserConfig
	}
	if _, err := os.Stat(configDirectory + "/data/config/user.json"); err != nil {
		cachedUserConfig = &models.User{}
		return *cachedUserConfig
	}
	userConfig := config.ReadUserConfig(configDirectory)
	cachedUserConfig = &userConfig
	return userConfig
}
