// Command admintoken prints a bearer token for the admin API signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fastygo/taskbot/internal/config"
	"github.com/fastygo/taskbot/internal/middleware"
)

func main() {
	subject := flag.String("subject", "dashboard", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	cfg := config.MustLoad()

	token, err := middleware.IssueAdminToken(cfg.JWT.Secret, cfg.JWT.Issuer, *subject, *ttl, time.Now())
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
