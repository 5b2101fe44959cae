package account

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

const tokenIssuer = "folio"

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func signToken(secret []byte, user *User, issuedAt time.Time, ttl time.Duration) (string, error) {
	c := &claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", eris.Wrap(err, "signing token")
	}
	return signed, nil
}

func parseToken(secret []byte, raw string, now func() time.Time) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return Identity{}, eris.Wrap(err, "parsing token")
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, eris.New("invalid token")
	}

	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, eris.Errorf("invalid token subject %q", c.Subject)
	}

	return Identity{UserID: uint(id), Username: c.Username}, nil
}
