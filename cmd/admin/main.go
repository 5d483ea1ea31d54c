package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"jobRadar/internal/config"
	"jobRadar/internal/database"
)

func main() {
	var (
		username = flag.String("username", "", "目标用户名（必填）")
		plan     = flag.String("plan", database.PlanPremium, "订阅档位：free 或 premium")
		status   = flag.String("status", database.SubscriptionActive, "订阅状态：active 或 inactive")
		dbHost   = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort   = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName   = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser   = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass   = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode  = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}

	planType := strings.ToLower(strings.TrimSpace(*plan))
	if planType != database.PlanFree && planType != database.PlanPremium {
		log.Fatalf("invalid plan %q (expected free or premium)", *plan)
	}

	planStatus := strings.ToLower(strings.TrimSpace(*status))
	if planStatus != database.SubscriptionActive && planStatus != database.SubscriptionInactive {
		log.Fatalf("invalid status %q (expected active or inactive)", *status)
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(&database.User{}, &database.Subscription{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var user database.User
	switch err := db.Where("username = ?", u).First(&user).Error; {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Fatalf("user %q does not exist", u)
	default:
		log.Fatalf("query user: %v", err)
	}

	var sub database.Subscription
	switch err := db.Where("user_id = ?", user.ID).First(&sub).Error; {
	case err == nil:
		sub.PlanType = planType
		sub.Status = planStatus
		if err := db.Save(&sub).Error; err != nil {
			log.Fatalf("update subscription: %v", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = database.Subscription{
			UserID:   user.ID,
			PlanType: planType,
			Status:   planStatus,
		}
		if err := db.Create(&sub).Error; err != nil {
			log.Fatalf("create subscription: %v", err)
		}
	default:
		log.Fatalf("query subscription: %v", err)
	}

	fmt.Printf("已更新订阅：\n")
	fmt.Printf("用户名: %s (ID %d)\n", u, user.ID)
	fmt.Printf("档位: %s\n", sub.PlanType)
	fmt.Printf("状态: %s\n", sub.Status)
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
