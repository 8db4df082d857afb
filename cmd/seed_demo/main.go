package main

import (
	"fmt"
	"log"

	"github.com/gestdoc-app/gestdocgo/internal/config"
	"github.com/gestdoc-app/gestdocgo/internal/database"
	"github.com/gestdoc-app/gestdocgo/internal/models"
	"github.com/gestdoc-app/gestdocgo/internal/utils"
)

func main() {
	fmt.Println("🌱 GestDoc Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Department{},
		&models.Area{},
		&models.Folder{},
		&models.Document{},
		&models.DocumentVersion{},
		&models.AuditType{},
		&models.Audit{},
		&models.AuditDocumentReview{},
		&models.FindingType{},
		&models.AuditFinding{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// 1. Finding type catalog
	fmt.Println("🏷️  Seeding finding types...")
	findingTypes := []models.FindingType{
		{Name: "No Conformidad", Description: "Incumplimiento de un requisito"},
		{Name: "Observación", Description: "Situación que podría derivar en una no conformidad"},
		{Name: "Oportunidad de Mejora", Description: "Sugerencia para mejorar un proceso"},
	}
	for _, ft := range findingTypes {
		var existing models.FindingType
		result := db.Where("name = ?", ft.Name).FirstOrCreate(&existing, ft)
		if result.Error != nil {
			log.Fatalf("❌ Failed to seed finding type %q: %v", ft.Name, result.Error)
		}
		fmt.Printf("   • %s (id=%d)\n", existing.Name, existing.ID)
	}

	// 2. Admin user
	fmt.Println("👤 Seeding admin user...")
	var admin models.User
	err = db.Where("email = ?", "admin@gestdoc.local").First(&admin).Error
	if err != nil {
		hashed, err := utils.HashPassword("password123")
		if err != nil {
			log.Fatalf("❌ Failed to hash password: %v", err)
		}
		admin = models.User{
			Name:     "Administrador",
			Email:    "admin@gestdoc.local",
			Password: hashed,
			Role:     "admin",
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("❌ Failed to create admin user: %v", err)
		}
		fmt.Println("   • admin@gestdoc.local / password123")
	} else {
		fmt.Println("   • admin user already exists, skipping")
	}

	// 3. Demo audit types
	fmt.Println("📋 Seeding audit types...")
	auditTypes := []models.AuditType{
		{Name: "Auditoría Interna", Description: "Revisión periódica interna", Status: true},
		{Name: "Auditoría Externa", Description: "Revisión por entidad certificadora", Status: true},
	}
	for _, at := range auditTypes {
		var existing models.AuditType
		result := db.Where("name = ?", at.Name).FirstOrCreate(&existing, at)
		if result.Error != nil {
			log.Fatalf("❌ Failed to seed audit type %q: %v", at.Name, result.Error)
		}
		fmt.Printf("   • %s (id=%d)\n", existing.Name, existing.ID)
	}

	fmt.Println()
	fmt.Println("✅ Seeding complete")
}
