package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

// PurchaseLine is one aggregated row of the shopping list.
type PurchaseLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingListService turns a user's cart into a consolidated purchase list.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Build collects every ingredient row of every recipe in the user's cart and
// sums amounts per (name, measurement unit). Grouping by name rather than
// ingredient id means two ingredient records sharing a name and unit merge
// into one line. Output keeps the order lines were first encountered in,
// walking carts oldest first.
func (s *ShoppingListService) Build(ctx context.Context, userID uuid.UUID) ([]PurchaseLine, error) {
	type row struct {
		Name            string
		MeasurementUnit string
		Amount          int
	}

	var rows []row
	err := s.db.WithContext(ctx).
		Table("carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, ingredient_in_recipes.amount AS amount").
		Joins("JOIN ingredient_in_recipes ON ingredient_in_recipes.recipe_id = carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_in_recipes.ingredient_id").
		Where("carts.user_id = ?", userID).
		Order("carts.created_at, carts.id, ingredient_in_recipes.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(rows))
	lines := make([]PurchaseLine, 0, len(rows))
	for _, r := range rows {
		key := r.Name + "\x00" + r.MeasurementUnit
		if i, ok := index[key]; ok {
			lines[i].Amount += r.Amount
			continue
		}
		index[key] = len(lines)
		lines = append(lines, PurchaseLine{
			Name:            r.Name,
			MeasurementUnit: r.MeasurementUnit,
			Amount:          r.Amount,
		})
	}
	return lines, nil
}

// Layout constants for RenderPDF, in millimeters on an A4 page.
const (
	pdfTitleY      = 25.0
	pdfFirstLineY  = 45.0
	pdfLineHeight  = 9.0
	pdfLeftMargin  = 20.0
	pdfBottomLimit = 275.0
)

// RenderPDF draws the list as a fixed-layout document: a centered title,
// then one line per purchase, breaking to a new page when the cursor
// reaches the bottom margin.
func (s *ShoppingListService) RenderPDF(lines []PurchaseLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pageWidth, _ := pdf.GetPageSize()
	pdf.Text(pageWidth/2-pdf.GetStringWidth("Shopping List")/2, pdfTitleY, "Shopping List")

	pdf.SetFont("Helvetica", "", 14)
	y := pdfFirstLineY
	for _, line := range lines {
		if y > pdfBottomLimit {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 14)
			y = pdfFirstLineY
		}
		text := fmt.Sprintf("- %s (%s) - %d", line.Name, line.MeasurementUnit, line.Amount)
		pdf.Text(pdfLeftMargin, y, tr(text))
		y += pdfLineHeight
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
