// Command tokens mints the credentials the service expects at its two auth
// boundaries: an operator JWT for the read API and a bcrypt hash of the
// scheduler's trigger secret.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bbuilders/actionbot/pkg/util"
)

func main() {
	subject := flag.String("subject", "", "operator subject to mint a read-API token for")
	jwtSecret := flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "JWT signing secret")
	triggerSecret := flag.String("hash-trigger-secret", "", "trigger secret to hash for trigger.secret_hash")
	flag.Parse()

	if *subject == "" && *triggerSecret == "" {
		fmt.Fprintln(os.Stderr, "usage: tokens -subject <operator> -jwt-secret <secret> | -hash-trigger-secret <secret>")
		os.Exit(2)
	}

	if *subject != "" {
		if *jwtSecret == "" {
			fmt.Fprintln(os.Stderr, "a JWT secret is required (flag -jwt-secret or env JWT_SECRET)")
			os.Exit(2)
		}
		token, err := util.GenerateJWT(*subject, *jwtSecret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("token: %s\n", token)
	}

	if *triggerSecret != "" {
		hash, err := util.HashSecret(*triggerSecret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to hash secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("trigger.secret_hash: %s\n", hash)
	}
}
