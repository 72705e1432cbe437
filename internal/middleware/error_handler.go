package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apiError "scibind/internal/errors"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// raw errors and document-model sentinels are mapped here
		apiErr := apiError.FromDomain(err)

		if apiErr.Status >= 500 {
			log.Error().Err(apiErr.Internal).Str("path", c.FullPath()).Msg(apiErr.Message)
		} else {
			log.Info().Err(apiErr.Internal).Int("status", apiErr.Status).Str("path", c.FullPath()).Msg(apiErr.Message)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
