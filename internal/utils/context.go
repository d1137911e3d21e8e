package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/pulsedeck-dev/pulsedeck/internal/middleware"
	"github.com/pulsedeck-dev/pulsedeck/internal/types"
)

var ErrNotAuthenticated = errors.New("user not authenticated")

// GetCurrentUser reads the user the auth middleware stored on the request
// context.
func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	user, ok := value.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	return user, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}
