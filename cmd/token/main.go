// Command token mints a short-lived client JWT for an agent platform so it
// can call the checkout API without the static shared token.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/commercegrid/acp-checkout-backend/pkg/auth"
	"github.com/commercegrid/acp-checkout-backend/pkg/config"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
)

func main() {
	client := flag.String("client", "", "client name embedded in the token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "token"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	if *client == "" {
		fmt.Fprintln(os.Stderr, "usage: token -client <name> [-ttl 1h]")
		os.Exit(2)
	}

	token, err := auth.MintClientToken(cfg.Auth, time.Now(), *client, *ttl)
	if err != nil {
		logg.Error(context.Background(), "failed to mint token", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
