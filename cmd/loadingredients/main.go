// Command loadingredients bulk-imports the ingredient catalog from a CSV
// file with "name,measurement_unit" rows. Existing names are left alone.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/mkrasilnikov/foodgram/backend/config"
	"github.com/mkrasilnikov/foodgram/backend/internal/database"
	"github.com/mkrasilnikov/foodgram/backend/internal/logger"
	"github.com/mkrasilnikov/foodgram/backend/internal/models"
	"github.com/mkrasilnikov/foodgram/backend/internal/service"
)

func main() {
	path := flag.String("file", "ingredients.csv", "path to the ingredients CSV file")
	flag.Parse()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatal("failed to open CSV file", zap.String("path", *path), zap.Error(err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		log.Fatal("failed to parse CSV", zap.Error(err))
	}

	ingredients := make([]models.Ingredient, 0, len(records))
	for _, record := range records {
		ingredients = append(ingredients, models.Ingredient{
			Name:            record[0],
			MeasurementUnit: record[1],
		})
	}

	created, err := service.NewIngredientService(db).Import(context.Background(), ingredients)
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}
	log.Info("import finished",
		zap.Int("rows", len(ingredients)),
		zap.Int("created", created))
}
