package services

import (
	"context"

	"exportdecl/database"
	apperrors "exportdecl/server/errors"
)

// Размер страницы по умолчанию
const (
	DefaultMappingsPerPage   = 50
	DefaultKnownNamesPerPage = 100
)

// MappingService CRUD справочников: товары, бренды, канонические названия
type MappingService struct {
	db *database.LookupDB
}

// NewMappingService создает сервис справочников
func NewMappingService(db *database.LookupDB) *MappingService {
	return &MappingService{db: db}
}

func wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return apperrors.WrapError(err, message)
}

// ListProductMappings список товаров
func (s *MappingService) ListProductMappings(ctx context.Context, f database.ListFilter) (*database.ListResult[database.ProductMapping], error) {
	if f.PerPage < 1 {
		f.PerPage = DefaultMappingsPerPage
	}
	res, err := s.db.ListProductMappings(ctx, f)
	return res, wrap(err, "не удалось получить список товаров")
}

// GetProductMapping товар по id
func (s *MappingService) GetProductMapping(ctx context.Context, id int64) (*database.ProductMapping, error) {
	m, err := s.db.GetProductMapping(ctx, id)
	return m, wrap(err, "товар не найден")
}

// CreateProductMapping создает товар
func (s *MappingService) CreateProductMapping(ctx context.Context, m database.ProductMapping) (*database.ProductMapping, error) {
	created, err := s.db.CreateProductMapping(ctx, m)
	return created, wrap(err, "не удалось создать товар")
}

// UpdateProductMapping частично обновляет товар
func (s *MappingService) UpdateProductMapping(ctx context.Context, id int64, patch database.ProductMappingPatch) (*database.ProductMapping, error) {
	updated, err := s.db.UpdateProductMapping(ctx, id, patch)
	return updated, wrap(err, "не удалось обновить товар")
}

// DeleteProductMapping удаляет товар
func (s *MappingService) DeleteProductMapping(ctx context.Context, id int64) error {
	return wrap(s.db.DeleteProductMapping(ctx, id), "не удалось удалить товар")
}

// CleanupEmptyProductMappings удаляет товары без веса и размера
func (s *MappingService) CleanupEmptyProductMappings(ctx context.Context) (int64, error) {
	n, err := s.db.CleanupEmptyProductMappings(ctx)
	return n, wrap(err, "не удалось очистить справочник товаров")
}

// ListBrandMappings список брендов; поиск по коду и стандартному названию
func (s *MappingService) ListBrandMappings(ctx context.Context, f database.ListFilter) (*database.ListResult[database.BrandMapping], error) {
	if f.PerPage < 1 {
		f.PerPage = DefaultMappingsPerPage
	}
	res, err := s.db.ListBrandMappings(ctx, f)
	return res, wrap(err, "не удалось получить список брендов")
}

// GetBrandMapping бренд по id
func (s *MappingService) GetBrandMapping(ctx context.Context, id int64) (*database.BrandMapping, error) {
	m, err := s.db.GetBrandMapping(ctx, id)
	return m, wrap(err, "бренд не найден")
}

// CreateBrandMapping создает бренд
func (s *MappingService) CreateBrandMapping(ctx context.Context, m database.BrandMapping) (*database.BrandMapping, error) {
	created, err := s.db.CreateBrandMapping(ctx, m)
	return created, wrap(err, "не удалось создать бренд")
}

// UpdateBrandMapping частично обновляет бренд
func (s *MappingService) UpdateBrandMapping(ctx context.Context, id int64, patch database.BrandMappingPatch) (*database.BrandMapping, error) {
	updated, err := s.db.UpdateBrandMapping(ctx, id, patch)
	return updated, wrap(err, "не удалось обновить бренд")
}

// DeleteBrandMapping удаляет бренд
func (s *MappingService) DeleteBrandMapping(ctx context.Context, id int64) error {
	return wrap(s.db.DeleteBrandMapping(ctx, id), "не удалось удалить бренд")
}

// ListKnownNames список канонических названий в порядке приоритета
func (s *MappingService) ListKnownNames(ctx context.Context, f database.ListFilter) (*database.ListResult[database.KnownProductName], error) {
	if f.PerPage < 1 {
		f.PerPage = DefaultKnownNamesPerPage
	}
	res, err := s.db.ListKnownNames(ctx, f)
	return res, wrap(err, "не удалось получить список названий")
}

// GetKnownName название по id
func (s *MappingService) GetKnownName(ctx context.Context, id int64) (*database.KnownProductName, error) {
	n, err := s.db.GetKnownName(ctx, id)
	return n, wrap(err, "название не найдено")
}

// CreateKnownName добавляет название в конец реестра
func (s *MappingService) CreateKnownName(ctx context.Context, name string) (*database.KnownProductName, error) {
	created, err := s.db.CreateKnownName(ctx, name)
	return created, wrap(err, "не удалось добавить название")
}

// UpdateKnownName переименовывает, позиция в реестре сохраняется
func (s *MappingService) UpdateKnownName(ctx context.Context, id int64, name string) (*database.KnownProductName, error) {
	updated, err := s.db.UpdateKnownName(ctx, id, name)
	return updated, wrap(err, "не удалось обновить название")
}

// DeleteKnownName удаляет название
func (s *MappingService) DeleteKnownName(ctx context.Context, id int64) error {
	return wrap(s.db.DeleteKnownName(ctx, id), "не удалось удалить название")
}
