package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TemplateRow mirrors the tenant_template table for the importer.
type TemplateRow struct {
	ID         uint           `gorm:"primaryKey"`
	TenantID   string         `gorm:"column:tenant_id"`
	TenantName string         `gorm:"column:tenant_name"`
	Revision   int64          `gorm:"column:revision"`
	Content    datatypes.JSON `gorm:"column:content"`
}

func (TemplateRow) TableName() string {
	return "tenant_template"
}

// Imports a tenant template document from a JSON file, replacing any
// existing row for the tenant.
//
// Usage: go run script/import_template.go -db data/valora.db -tenant acme -file template.json
func main() {
	dbPath := flag.String("db", "data/valora.db", "path to the sqlite database")
	tenantID := flag.String("tenant", "", "tenant id to import the template for")
	tenantName := flag.String("name", "", "tenant display name")
	filePath := flag.String("file", "", "path to the template JSON file")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing")
	flag.Parse()

	if *tenantID == "" || *filePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("read template file: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Fatalf("template file is not valid JSON: %v", err)
	}
	if _, ok := doc["environments"]; !ok {
		log.Fatalf("template file has no environments section")
	}

	if *dryRun {
		fmt.Printf("template for tenant %s parses cleanly (%d bytes)\n", *tenantID, len(raw))
		return
	}

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	var existing TemplateRow
	err = db.Where("tenant_id = ?", *tenantID).First(&existing).Error
	switch {
	case err == nil:
		existing.Content = datatypes.JSON(raw)
		existing.Revision++
		if *tenantName != "" {
			existing.TenantName = *tenantName
		}
		if err := db.Save(&existing).Error; err != nil {
			log.Fatalf("update template: %v", err)
		}
		fmt.Printf("replaced template for tenant %s (revision %d)\n", *tenantID, existing.Revision)
	case err == gorm.ErrRecordNotFound:
		row := TemplateRow{
			TenantID:   *tenantID,
			TenantName: *tenantName,
			Content:    datatypes.JSON(raw),
		}
		if err := db.Create(&row).Error; err != nil {
			log.Fatalf("create template: %v", err)
		}
		fmt.Printf("created template for tenant %s\n", *tenantID)
	default:
		log.Fatalf("query template: %v", err)
	}
}
