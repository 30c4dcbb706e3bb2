package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

const tokenTTL = 24 * time.Hour

// GenerateToken issues the signed bearer token carried by API calls.
// Claims mirror model.UserClaims so the auth middleware can parse them
// back into the same struct.
func GenerateToken(userID int64, userName, secretKey string) (string, error) {
	now := time.Now().UTC()
	claims := model.UserClaims{
		UserID:   userID,
		UserName: userName,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}
