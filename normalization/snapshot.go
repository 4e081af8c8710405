package normalization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exportdecl/database"

	"go.uber.org/zap"
)

// Названия справочников
const (
	RegistryKnownNames = "known_names"
	RegistryBrands     = "brand_mappings"
	RegistryProducts   = "product_mappings"
)

// ErrEmptyBatch ни один файл не дал пригодных строк. Это не ошибка запуска:
// Result.Empty() == true, вызывающий решает, как это показать.
var ErrEmptyBatch = errors.New("no usable rows in any source file")

// LookupStore чтение справочников целиком
type LookupStore interface {
	AllProductMappings(ctx context.Context) ([]database.ProductMapping, error)
	AllBrandMappings(ctx context.Context) ([]database.BrandMapping, error)
	AllKnownNames(ctx context.Context) ([]string, error)
}

// LookupUnavailableError справочник не прочитан; запуск продолжается с пустым справочником
type LookupUnavailableError struct {
	Registry string
	Err      error
}

func (e *LookupUnavailableError) Error() string {
	return fmt.Sprintf("lookup registry %s unavailable: %v", e.Registry, e.Err)
}

func (e *LookupUnavailableError) Unwrap() error {
	return e.Err
}

// Snapshot неизменяемая копия справочников на один запуск
type Snapshot struct {
	KnownNames []string              `json:"known_names"`
	Brands     map[string]string     `json:"brands"`
	Products   map[string]Attributes `json:"products"`
	TakenAt    time.Time             `json:"taken_at"`
}

// NewSnapshot собирает снимок из записей справочников
func NewSnapshot(names []string, brands []database.BrandMapping, products []database.ProductMapping) *Snapshot {
	s := &Snapshot{
		KnownNames: append([]string(nil), names...),
		Brands:     make(map[string]string, len(brands)),
		Products:   make(map[string]Attributes, len(products)),
		TakenAt:    time.Now().UTC(),
	}
	for _, b := range brands {
		s.Brands[b.BrandName] = b.ReferenceName
	}
	for _, p := range products {
		s.Products[p.ProductName] = Attributes{Weight: p.BoxWeight, Size: p.BoxSize}
	}
	return s
}

// Registry реестр названий из снимка
func (s *Snapshot) Registry() *NameRegistry {
	return NewNameRegistry(s.KnownNames)
}

// Remapper ремаппер брендов из снимка
func (s *Snapshot) Remapper() *BrandRemapper {
	return NewBrandRemapper(s.Brands)
}

// Resolver резолвер веса/размера из снимка
func (s *Snapshot) Resolver() *AttributeResolver {
	return NewAttributeResolver(s.Products)
}

// SnapshotLoader читает справочники в начале запуска. При недоступности хранилища
// справочник берется из зеркала, а если и его нет, считается пустым.
type SnapshotLoader struct {
	store  LookupStore
	mirror SnapshotMirror
	logger *zap.Logger
}

// NewSnapshotLoader создает загрузчик; mirror может быть nil
func NewSnapshotLoader(store LookupStore, mirror SnapshotMirror, logger *zap.Logger) *SnapshotLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotLoader{store: store, mirror: mirror, logger: logger}
}

// Load читает все три справочника. Ошибки не прерывают запуск и возвращаются списком.
func (l *SnapshotLoader) Load(ctx context.Context) (*Snapshot, []*LookupUnavailableError) {
	var failures []*LookupUnavailableError
	fail := func(registry string, err error) {
		failures = append(failures, &LookupUnavailableError{Registry: registry, Err: err})
	}

	var names []string
	var brands []database.BrandMapping
	var products []database.ProductMapping

	if l.store == nil {
		err := errors.New("lookup store is not configured")
		fail(RegistryKnownNames, err)
		fail(RegistryBrands, err)
		fail(RegistryProducts, err)
	} else {
		var err error
		if names, err = l.store.AllKnownNames(ctx); err != nil {
			fail(RegistryKnownNames, err)
		}
		if brands, err = l.store.AllBrandMappings(ctx); err != nil {
			fail(RegistryBrands, err)
		}
		if products, err = l.store.AllProductMappings(ctx); err != nil {
			fail(RegistryProducts, err)
		}
	}

	snap := NewSnapshot(names, brands, products)

	if len(failures) == 0 {
		l.saveMirror(ctx, snap)
		return snap, nil
	}

	fallback := l.loadMirror(ctx)
	for _, f := range failures {
		fromMirror := false
		if fallback != nil {
			switch f.Registry {
			case RegistryKnownNames:
				snap.KnownNames = append([]string(nil), fallback.KnownNames...)
			case RegistryBrands:
				snap.Brands = fallback.Brands
			case RegistryProducts:
				snap.Products = fallback.Products
			}
			fromMirror = true
		}

		// Работаем дальше: совпадения и атрибуты просто не находятся
		l.logger.Error("Lookup registry unavailable, continuing degraded",
			zap.String("registry", f.Registry),
			zap.Bool("mirror_fallback", fromMirror),
			zap.Error(f.Err))
	}

	if snap.Brands == nil {
		snap.Brands = map[string]string{}
	}
	if snap.Products == nil {
		snap.Products = map[string]Attributes{}
	}
	return snap, failures
}

func (l *SnapshotLoader) saveMirror(ctx context.Context, snap *Snapshot) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.Save(ctx, snap); err != nil {
		l.logger.Warn("Failed to mirror lookup snapshot", zap.Error(err))
	}
}

func (l *SnapshotLoader) loadMirror(ctx context.Context) *Snapshot {
	if l.mirror == nil {
		return nil
	}
	snap, err := l.mirror.Load(ctx)
	if err != nil {
		l.logger.Warn("Failed to read lookup snapshot mirror", zap.Error(err))
		return nil
	}
	return snap
}
