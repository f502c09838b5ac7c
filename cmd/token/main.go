// Command token mints a bearer token for local use against a server started
// with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"

	"ride_dispatch/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "email claim of the token")
	ttl := flag.Duration("ttl", 72*time.Hour, "token lifetime")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: token -email admin@example.com [-ttl 72h]")
		os.Exit(2)
	}

	token, err := middleware.GenerateToken(*email, []byte(os.Getenv("JWT_SECRET")), *ttl)
	if err != nil {
		logrus.WithError(err).Fatal("could not sign token (is JWT_SECRET set?)")
	}
	fmt.Println(token)
}
