// Command token issues an operator access token signed with the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/sangkips/backoffice-api/internal/config"
	"github.com/sangkips/backoffice-api/pkg/utils"
)

func main() {
	operator := flag.String("operator", "", "operator UUID (generated when empty)")
	email := flag.String("email", "", "operator email")
	roles := flag.String("roles", utils.RoleCashier, "comma separated roles: cashier, manager")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	operatorID := uuid.New()
	if *operator != "" {
		if operatorID, err = uuid.Parse(*operator); err != nil {
			log.Fatalf("Invalid operator ID: %v", err)
		}
	}

	var granted []string
	for _, role := range strings.Split(*roles, ",") {
		switch role = strings.TrimSpace(role); role {
		case utils.RoleCashier, utils.RoleManager:
			granted = append(granted, role)
		case "":
		default:
			log.Fatalf("Unknown role %q", role)
		}
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours)
	token, err := jwtManager.GenerateAccessToken(operatorID, *email, granted)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(token)
}
