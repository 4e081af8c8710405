package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedData начальные справочники из YAML
type SeedData struct {
	Brands     []SeedBrand   `yaml:"brands"`
	KnownNames []string      `yaml:"known_names"`
	Products   []SeedProduct `yaml:"products"`
}

// SeedBrand соответствие бренда в файле начальных данных
type SeedBrand struct {
	BrandName     string `yaml:"brand_name"`
	ReferenceName string `yaml:"reference_name"`
}

// SeedProduct вес/размер товара в файле начальных данных
type SeedProduct struct {
	ProductName string   `yaml:"product_name"`
	BoxWeight   *float64 `yaml:"box_weight"`
	BoxSize     *string  `yaml:"box_size"`
}

// SeedStats результат заполнения одного справочника
type SeedStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SeedReport результат заполнения всех справочников
type SeedReport struct {
	Brands     SeedStats `json:"brands"`
	KnownNames SeedStats `json:"known_names"`
	Products   SeedStats `json:"products"`
}

// LoadSeedFile читает YAML файл с начальными справочниками
func LoadSeedFile(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed применяет данные ко всем справочникам: бренды добавляются или обновляются,
// названия и товары добавляются, если их еще нет
func (db *LookupDB) Seed(ctx context.Context, seed *SeedData) (*SeedReport, error) {
	report := &SeedReport{}

	brands, err := db.seedBrands(ctx, seed)
	if err != nil {
		return nil, err
	}
	report.Brands = brands

	names, err := db.seedKnownNames(ctx, seed)
	if err != nil {
		return nil, err
	}
	report.KnownNames = names

	products, err := db.seedProducts(ctx, seed)
	if err != nil {
		return nil, err
	}
	report.Products = products

	return report, nil
}

// SeedIfEmpty заполняет только пустые справочники
func (db *LookupDB) SeedIfEmpty(ctx context.Context, seed *SeedData) (*SeedReport, error) {
	report := &SeedReport{}

	empty := func(table string) (bool, error) {
		var n int
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return false, fmt.Errorf("failed to count %s: %w", table, err)
		}
		return n == 0, nil
	}

	if ok, err := empty("brand_mapping"); err != nil {
		return nil, err
	} else if ok {
		if report.Brands, err = db.seedBrands(ctx, seed); err != nil {
			return nil, err
		}
	}

	if ok, err := empty("known_product_names"); err != nil {
		return nil, err
	} else if ok {
		if report.KnownNames, err = db.seedKnownNames(ctx, seed); err != nil {
			return nil, err
		}
	}

	if ok, err := empty("product_mapping"); err != nil {
		return nil, err
	} else if ok {
		if report.Products, err = db.seedProducts(ctx, seed); err != nil {
			return nil, err
		}
	}

	db.logger.Info("Lookup registries seeded",
		zap.Int("brands_added", report.Brands.Added),
		zap.Int("known_names_added", report.KnownNames.Added),
		zap.Int("products_added", report.Products.Added))

	return report, nil
}

func (db *LookupDB) seedBrands(ctx context.Context, seed *SeedData) (SeedStats, error) {
	var stats SeedStats
	for _, b := range seed.Brands {
		if strings.TrimSpace(b.BrandName) == "" {
			stats.Skipped++
			continue
		}
		added, updated, err := db.UpsertBrandMapping(ctx, b.BrandName, b.ReferenceName)
		if err != nil {
			return stats, fmt.Errorf("failed to seed brand %q: %w", b.BrandName, err)
		}
		switch {
		case added:
			stats.Added++
		case updated:
			stats.Updated++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

func (db *LookupDB) seedKnownNames(ctx context.Context, seed *SeedData) (SeedStats, error) {
	var stats SeedStats
	for _, name := range seed.KnownNames {
		_, err := db.CreateKnownName(ctx, name)
		switch {
		case err == nil:
			stats.Added++
		case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrInvalidInput):
			stats.Skipped++
		default:
			return stats, fmt.Errorf("failed to seed known name %q: %w", name, err)
		}
	}
	return stats, nil
}

func (db *LookupDB) seedProducts(ctx context.Context, seed *SeedData) (SeedStats, error) {
	var stats SeedStats
	for _, p := range seed.Products {
		_, err := db.CreateProductMapping(ctx, ProductMapping{
			ProductName: p.ProductName,
			BoxWeight:   p.BoxWeight,
			BoxSize:     p.BoxSize,
		})
		switch {
		case err == nil:
			stats.Added++
		case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrInvalidInput):
			stats.Skipped++
		default:
			return stats, fmt.Errorf("failed to seed product %q: %w", p.ProductName, err)
		}
	}
	return stats, nil
}
