package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RoomTokenTTL 房间令牌有效期
	RoomTokenTTL = 10 * time.Minute

	tokenIssuer = "bombarena-server"

	// 开发环境默认密钥，生产环境应设置 JWT_SECRET
	devSecret = "bombarena-dev-secret-change-in-production"
)

var ErrInvalidToken = errors.New("无效的令牌")

// Claims 房间令牌内容，证明持有者以某个会话加入了某个房间
type Claims struct {
	SessionID string `json:"sid"`
	RoomID    string `json:"room_id"`
	Owner     bool   `json:"owner,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发和校验房间令牌
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	if secret == "" {
		secret = devSecret
	}
	return &TokenIssuer{key: []byte(secret), ttl: RoomTokenTTL, now: time.Now}
}

// Issue 为加入房间的会话签发令牌
func (t *TokenIssuer) Issue(sessionID, roomID string, owner bool) (string, error) {
	now := t.now()
	claims := Claims{
		SessionID: sessionID,
		RoomID:    roomID,
		Owner:     owner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Verify 校验签名与有效期并返回内容
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
