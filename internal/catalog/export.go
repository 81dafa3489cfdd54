package catalog

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/marais-jewelry/marais-backend/internal/inventory"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
)

// ExportContentType is the MIME type of the catalog workbook.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"ID", "Артикул", "Название", "Slug", "Категория", "Бренд", "Коллекция",
	"Цена", "Скидка %", "Цена со скидкой", "Остаток", "Размеры", "Остатки по размерам",
	"Металл", "Материал", "Покрытие", "Камни", "Цвет", "Пол", "Вес", "Активен",
}

// WriteWorkbook renders products as a single-sheet xlsx workbook.
func WriteWorkbook(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Article)
		row.AddCell().SetString(p.Title)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(taxonomyName(p.Category))
		row.AddCell().SetString(taxonomyName(p.Brand))
		row.AddCell().SetString(taxonomyName(p.Collection))
		row.AddCell().SetInt64(p.Price)
		if p.DiscountPercent != nil {
			row.AddCell().SetInt(*p.DiscountPercent)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt64(p.FinalPrice())
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.Size)
		row.AddCell().SetString(inventory.FormatSizeStock(p.SizeStock))
		row.AddCell().SetString(p.Metal)
		row.AddCell().SetString(p.Material)
		row.AddCell().SetString(p.Coverage)
		row.AddCell().SetString(p.Stones)
		row.AddCell().SetString(p.Color)
		row.AddCell().SetString(p.Gender)
		if p.Weight != nil {
			row.AddCell().SetString(p.Weight.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetBool(p.IsActive)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func taxonomyName(v any) string {
	switch t := v.(type) {
	case *models.Category:
		if t != nil {
			return t.Name
		}
	case *models.Brand:
		if t != nil {
			return t.Name
		}
	case *models.Collection:
		if t != nil {
			return t.Name
		}
	}
	return ""
}
