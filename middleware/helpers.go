package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimAdminID = "admin_id"
	jwtClaimEmail   = "email"
)

func GetAdminIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(adminContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("admin claims not found in context")
	}

	idClaim, ok := claims[jwtClaimAdminID]
	if !ok {
		return 0, fmt.Errorf("missing %q claim in token", jwtClaimAdminID)
	}
	// encoding/json decodes JWT numbers as float64
	idFloat, ok := idClaim.(float64)
	if !ok || idFloat != float64(int(idFloat)) {
		return 0, fmt.Errorf("invalid %q claim: %v", jwtClaimAdminID, idClaim)
	}
	id := int(idFloat)
	if id <= 0 {
		return 0, fmt.Errorf("invalid admin ID value: %d", id)
	}
	return id, nil
}

func GetAdminEmailFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(adminContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("admin claims not found in context")
	}
	email, ok := claims[jwtClaimEmail].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("missing %q claim in token", jwtClaimEmail)
	}
	return email, nil
}
