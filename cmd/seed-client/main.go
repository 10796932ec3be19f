package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/accounts"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/database"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	clientID := os.Getenv("CLIENT_ID")
	if clientID == "" {
		clientID = "default"
		log.Infof("Using default client id: %s", clientID)
	}
	name := os.Getenv("CLIENT_NAME")
	if name == "" {
		name = clientID
	}

	secret := os.Getenv("CLIENT_SECRET")
	if secret == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("Failed to generate secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
		log.Warn("CLIENT_SECRET not set; generated one. Store it now, it is not shown again.")
	}

	if err := accounts.CreateClient(db, clientID, name, secret); err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	log.Infof("✓ API client created/updated successfully")
	log.Infof("  Client ID: %s", clientID)
	log.Infof("  Secret:    %s", secret)
	log.Info("Exchange them for a token at POST /api/v1/auth/token")
}
