package database

import (
	"errors"
	"strings"

	"seragon/config"
	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedService struct {
	name, description, price string
	recurring                bool
}

var seedCatalog = []struct {
	category models.ServiceCategory
	services []seedService
}{
	{models.ServiceCategory{Name: "Server Hosting", Description: "Professional Minecraft server hosting solutions", Icon: "server"}, []seedService{
		{"Starter Server", "Perfect for small communities with up to 20 players", "9.99", true},
		{"Pro Server", "High-performance hosting for up to 100 players", "24.99", true},
		{"Enterprise Server", "Dedicated resources for large communities", "49.99", true},
	}},
	{models.ServiceCategory{Name: "Custom Development", Description: "Tailored plugins and modifications", Icon: "code"}, []seedService{
		{"Custom Plugin", "Tailored plugin development for your server", "199.99", false},
		{"Plugin Modification", "Modify existing plugins to fit your needs", "99.99", false},
		{"Discord Bot", "Custom Discord bot for your community", "149.99", false},
	}},
	{models.ServiceCategory{Name: "Design Services", Description: "Professional graphics and branding", Icon: "palette"}, []seedService{
		{"Server Logo", "Professional logo design for your server", "49.99", false},
		{"Banner Design", "Eye-catching banners for social media", "29.99", false},
		{"Website Design", "Complete website design and development", "299.99", false},
	}},
	{models.ServiceCategory{Name: "Support Services", Description: "Technical support and maintenance", Icon: "headphones"}, []seedService{
		{"Priority Support", "24/7 priority support for your server", "19.99", true},
		{"Server Setup", "Complete server setup and configuration", "79.99", false},
	}},
	{models.ServiceCategory{Name: "World Building", Description: "Custom world creation and design", Icon: "globe"}, []seedService{
		{"Custom World", "Professionally designed custom world", "199.99", false},
		{"Spawn Area", "Beautiful spawn area design", "99.99", false},
	}},
	{models.ServiceCategory{Name: "Server Management", Description: "Complete server administration", Icon: "settings"}, []seedService{
		{"Full Management", "Complete server management service", "39.99", true},
		{"Security Audit", "Complete security audit and hardening", "149.99", false},
	}},
}

// SeedCatalog inserts the default categories and services when the catalog is empty.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ServiceCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range seedCatalog {
			cat := entry.category
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
			for _, s := range entry.services {
				svc := models.Service{
					CategoryID:  cat.ID,
					Name:        s.name,
					Description: s.description,
					Price:       models.MustMoney(s.price),
					IsRecurring: s.recurring,
					IsActive:    true,
				}
				if s.recurring {
					svc.RecurringPeriod = "month"
				}
				if err := tx.Create(&svc).Error; err != nil {
					return err
				}
			}
		}
		logger.Log.Info("seeded service catalog", zap.Int("categories", len(seedCatalog)))
		return nil
	})
}

// SeedAdmin creates the password-login admin when ADMIN_PASSWORD is set and the account is missing.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) error {
	if cfg.Password == "" || cfg.Email == "" {
		return nil
	}
	email := strings.ToLower(cfg.Email)
	id := domain.ProviderLocal + ":" + email
	var existing models.User
	err := db.Where("id = ?", id).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := models.User{
		ID:           id,
		Email:        &email,
		FirstName:    "Seragon",
		LastName:     "Admin",
		Role:         domain.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := db.Create(&u).Error; err != nil {
		return err
	}
	logger.Log.Info("seeded admin account", zap.String("email", email))
	return nil
}
