package repository

import (
	"context"

	"table-reservation-api/models"
)

type TableFilter struct {
	Location    models.TableLocation
	MinCapacity int
	ActiveOnly  bool
}

func (s *Store) CreateTable(ctx context.Context, table *models.Table) error {
	return translate(s.conn(ctx).Create(table).Error)
}

func (s *Store) FindTableByID(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.conn(ctx).First(&table, id).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

func (s *Store) FindTableByNumber(ctx context.Context, number int) (*models.Table, error) {
	var table models.Table
	if err := s.conn(ctx).Where("table_number = ?", number).First(&table).Error; err != nil {
		return nil, translate(err)
	}
	return &table, nil
}

func (s *Store) ListTables(ctx context.Context, filter TableFilter) ([]models.Table, error) {
	var tables []models.Table
	query := s.conn(ctx).Order("table_number asc")
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.MinCapacity > 0 {
		query = query.Where("capacity >= ?", filter.MinCapacity)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// SaveTable writes every column of table.
func (s *Store) SaveTable(ctx context.Context, table *models.Table) error {
	return translate(s.conn(ctx).Save(table).Error)
}

func (s *Store) DeleteTable(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Table{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
