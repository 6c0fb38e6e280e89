package models

import (
	"github.com/atelierhq/atelier/backend/internal/utils"
)

// SeedDefaultData creates the default admin account on first boot.
func SeedDefaultData() error {
	var count int64
	if err := DB.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := User{
		Username: "admin",
		Password: hash,
		Nickname: "Administrator",
		IsAdmin:  true,
		IsActive: true,
	}
	return DB.Create(&admin).Error
}
