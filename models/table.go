package models

import "time"

// TableStatus is the operational state of a table
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableMaintenance:
		return true
	}
	return false
}

// TableLocation is the seating area a table belongs to
type TableLocation string

const (
	LocationIndoor  TableLocation = "indoor"
	LocationOutdoor TableLocation = "outdoor"
	LocationTerrace TableLocation = "terrace"
	LocationPrivate TableLocation = "private"
	LocationBar     TableLocation = "bar"
	LocationWindow  TableLocation = "window"
)

func (l TableLocation) Valid() bool {
	switch l {
	case LocationIndoor, LocationOutdoor, LocationTerrace, LocationPrivate, LocationBar, LocationWindow:
		return true
	}
	return false
}

type Table struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	TableNumber    int           `json:"tableNumber" gorm:"uniqueIndex;not null"`
	Name           string        `json:"name"`
	Capacity       int           `json:"capacity" gorm:"not null"`
	Location       TableLocation `json:"location" gorm:"not null;default:'indoor'"`
	PricePerPerson float64       `json:"pricePerPerson" gorm:"default:0"`
	Status         TableStatus   `json:"status" gorm:"not null;default:'available'"`
	Features       []string      `json:"features" gorm:"serializer:json"`
	IsActive       bool          `json:"isActive" gorm:"not null"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
