package services

import (
	"context"

	"table-reservation-api/apperrors"
	"table-reservation-api/models"
	"table-reservation-api/repository"
)

const msgTableExists = "table number already exists"

type TableStore interface {
	CreateTable(ctx context.Context, table *models.Table) error
	FindTableByID(ctx context.Context, id uint) (*models.Table, error)
	ListTables(ctx context.Context, filter repository.TableFilter) ([]models.Table, error)
	SaveTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, id uint) error
}

type TableService struct {
	store TableStore
}

func NewTableService(store TableStore) *TableService {
	return &TableService{store: store}
}

// TableInput carries admin edits; nil fields keep their current value.
type TableInput struct {
	TableNumber    *int
	Name           *string
	Capacity       *int
	Location       *models.TableLocation
	PricePerPerson *float64
	Status         *models.TableStatus
	Features       []string
	IsActive       *bool
}

func (s *TableService) List(ctx context.Context, filter repository.TableFilter) ([]models.Table, error) {
	tables, err := s.store.ListTables(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list tables", err)
	}
	return tables, nil
}

func (s *TableService) Create(ctx context.Context, in TableInput) (*models.Table, error) {
	if in.TableNumber == nil || in.Capacity == nil {
		return nil, apperrors.Validation("tableNumber and capacity are required")
	}
	table := &models.Table{
		Location: models.LocationIndoor,
		Status:   models.TableAvailable,
		Features: []string{},
		IsActive: true,
	}
	if err := apply(table, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateTable(ctx, table); err != nil {
		return nil, storeError(err, "", msgTableExists, "create table")
	}
	return table, nil
}

func (s *TableService) Update(ctx context.Context, id uint, in TableInput) (*models.Table, error) {
	table, err := s.store.FindTableByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "table not found", "", "load table")
	}
	if err := apply(table, in); err != nil {
		return nil, err
	}
	if err := s.store.SaveTable(ctx, table); err != nil {
		return nil, storeError(err, "table not found", msgTableExists, "update table")
	}
	return table, nil
}

func (s *TableService) Delete(ctx context.Context, id uint) error {
	return storeError(s.store.DeleteTable(ctx, id), "table not found", "", "delete table")
}

func apply(table *models.Table, in TableInput) error {
	if in.TableNumber != nil {
		if *in.TableNumber < 1 {
			return apperrors.Validation("tableNumber must be positive")
		}
		table.TableNumber = *in.TableNumber
	}
	if in.Name != nil {
		table.Name = *in.Name
	}
	if in.Capacity != nil {
		if *in.Capacity < 1 || *in.Capacity > 20 {
			return apperrors.Validation("capacity must be between 1 and 20")
		}
		table.Capacity = *in.Capacity
	}
	if in.Location != nil {
		if !in.Location.Valid() {
			return apperrors.Validation("location %q is not valid", *in.Location)
		}
		table.Location = *in.Location
	}
	if in.PricePerPerson != nil {
		if *in.PricePerPerson < 0 {
			return apperrors.Validation("pricePerPerson cannot be negative")
		}
		table.PricePerPerson = *in.PricePerPerson
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperrors.Validation("status %q is not valid", *in.Status)
		}
		table.Status = *in.Status
	}
	if in.Features != nil {
		table.Features = in.Features
	}
	if in.IsActive != nil {
		table.IsActive = *in.IsActive
	}
	return nil
}
