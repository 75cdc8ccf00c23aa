package main

// Print a bearer token for local testing:
//   go run ./cmd/devtoken -user user-1 -ttl 24h

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"carevault-backend/internal/shared/auth"
	"carevault-backend/internal/shared/config"
)

func main() {
	userID := flag.String("user", "", "user id placed in the token subject")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = config.Load()
	if *userID == "" {
		log.Fatal("-user is required")
	}

	claims := auth.Claims{Email: *email}
	claims.Subject = *userID
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().UTC().Add(*ttl))

	token, err := auth.SignJWT(claims)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
