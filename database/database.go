package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"storefront-core/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Connect(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverPostgres, "":
		if dsn == "" {
			dsn = "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable"
		}
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})

	case DriverSQLite:
		if dsn == "" {
			dsn = "storefront.db"
		}
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		// One connection keeps in-memory databases shared and serializes writers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.OTPCode{},
		&models.Profile{},
		&models.Category{},
		&models.Product{},
		&models.CartLine{},
		&models.FavoriteLink{},
		&models.Order{},
		&models.OrderLine{},
	)
}

// CreateDemoUser creates a confirmed account to sign in with locally.
func CreateDemoUser(db *gorm.DB) error {
	demoEmail := os.Getenv("DEMO_EMAIL")
	demoPassword := os.Getenv("DEMO_PASSWORD")

	if demoEmail == "" {
		demoEmail = "demo@storefront.local"
	}
	if demoPassword == "" {
		demoPassword = "demo-password"
	}

	var existingUser models.User
	result := db.Where("email = ?", demoEmail).First(&existingUser)
	if result.Error == nil {
		// Demo user already exists
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user := models.User{
		Email:            demoEmail,
		Password:         string(hashedPassword),
		EmailConfirmedAt: &now,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.Profile{
			ID:       user.ID,
			Email:    user.Email,
			FullName: "Demo Shopper",
			Address:  "1 Market Street",
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		log.Printf("Demo user created: %s", demoEmail)
		return nil
	})
}

type seedProduct struct {
	name        string
	price       string
	description string
	bestSeller  bool
}

var seedCatalog = map[string][]seedProduct{
	"Dairy": {
		{"Whole Milk 1L", "1.20", "Fresh whole milk", true},
		{"Greek Yogurt", "2.40", "Strained plain yogurt, 500g", false},
		{"Cheddar", "3.75", "Mature cheddar, 250g", false},
	},
	"Bakery": {
		{"Sourdough Loaf", "3.10", "Slow-fermented white sourdough", true},
		{"Croissant", "1.05", "All-butter croissant", false},
	},
	"Produce": {
		{"Bananas", "0.99", "Bunch of five", true},
		{"Vine Tomatoes", "1.80", "Ripened on the vine, 400g", false},
		{"Avocado", "1.25", "Ready to eat", false},
	},
}

// SeedCatalog fills an empty catalog with sample categories and products.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for name, products := range seedCatalog {
			category := models.Category{Name: name}
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", name, err)
			}
			categoryID := category.ID
			for _, p := range products {
				product := models.Product{
					ID:           uuid.New(),
					Name:         p.name,
					Price:        decimal.RequireFromString(p.price),
					Description:  p.description,
					CategoryID:   &categoryID,
					IsBestSeller: p.bestSeller,
				}
				if err := tx.Create(&product).Error; err != nil {
					return fmt.Errorf("seed product %s: %w", p.name, err)
				}
			}
		}
		log.Printf("Seeded catalog with %d categories", len(seedCatalog))
		return nil
	})
}
