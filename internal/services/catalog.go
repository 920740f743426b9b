package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/models"
	"github.com/medismart/medismart-backend/internal/storage"
)

// CatalogService serves the medicine catalog
type CatalogService struct {
	store  storage.Store
	logger *logrus.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store storage.Store, logger *logrus.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// List returns every medicine sorted by name
func (s *CatalogService) List(ctx context.Context) ([]*models.Medicine, error) {
	return s.store.ListMedicines(ctx)
}

// LowStock returns medicines with fewer than threshold units left
func (s *CatalogService) LowStock(ctx context.Context, threshold int) ([]*models.Medicine, error) {
	return s.store.GetLowStockMedicines(ctx, threshold)
}

// SeedStarterCatalog fills an empty catalog with the starter medicines
func (s *CatalogService) SeedStarterCatalog(ctx context.Context) error {
	inserted, err := s.store.SeedMedicines(ctx, models.StarterCatalog())
	if err != nil {
		return err
	}
	if inserted > 0 {
		s.logger.Infof("🌱 Seeded %d medicines into empty catalog", inserted)
	}
	return nil
}
