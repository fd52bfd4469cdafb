package models

import "time"

// DrivingSchool is owned by exactly one manager and never changes after creation.
type DrivingSchool struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	ManagerID   string  `json:"manager_id" gorm:"not null;index;size:36"`
	Name        string  `json:"name" gorm:"not null;size:200" validate:"required,min=2,max=200"`
	Address     string  `json:"address" gorm:"size:255"`
	State       string  `json:"state" gorm:"size:100"`
	Phone       string  `json:"phone" gorm:"size:30"`
	Email       string  `json:"email" gorm:"size:255"`
	Description string  `json:"description" gorm:"type:text"`
	Price       float64 `json:"price" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DrivingSchool) TableName() string {
	return "driving_schools"
}
