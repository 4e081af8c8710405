package container

import (
	"context"
	"errors"
	"fmt"
	"os"

	"exportdecl/database"
	"exportdecl/importer"

	"go.uber.org/zap"
)

// bootstrapLookups заполняет пустые справочники из файла начальных данных,
// затем, если справочник веса/размера все еще пуст, строит его из файлов в каталоге загрузок
func (c *Container) bootstrapLookups(ctx context.Context) error {
	if err := c.SeedFromFile(ctx, c.Config.SeedFile, true); err != nil {
		return err
	}

	n, err := c.LookupDB.CountProductMappings(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := os.Stat(c.Config.Storage.UploadDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	report, err := c.RebuildProductMappings(ctx, c.Config.Storage.UploadDir)
	if err != nil {
		// сервис работает и без справочника: вес и размер будут пустыми
		c.Logger.Warn("Product mappings rebuild skipped", zap.Error(err))
		return nil
	}
	c.Logger.Info("Product mappings rebuilt from upload dir",
		zap.Int("created", report.Created),
		zap.Int("files", report.FilesProcessed))
	return nil
}

// SeedFromFile заполняет справочники из YAML. onlyEmpty: не трогать непустые справочники.
// Отсутствующий файл не ошибка.
func (c *Container) SeedFromFile(ctx context.Context, path string, onlyEmpty bool) error {
	if path == "" {
		return nil
	}
	seed, err := database.LoadSeedFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Logger.Info("Seed file not found, skipping", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to load seed file: %w", err)
	}

	if onlyEmpty {
		_, err = c.LookupDB.SeedIfEmpty(ctx, seed)
	} else {
		_, err = c.LookupDB.Seed(ctx, seed)
	}
	return err
}

// RebuildProductMappings перестраивает справочник веса/размера из Excel файлов каталога
func (c *Container) RebuildProductMappings(ctx context.Context, dir string) (*importer.RebuildReport, error) {
	return importer.NewProductMappingImporter(importer.NewFileReader(), c.LookupDB, c.Logger).RebuildFromDir(ctx, dir)
}
