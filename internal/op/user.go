package op

import (
	"fmt"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/db"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
)

var adminUser model.User

// UserInit loads the admin account, seeding admin/admin on first
// start.
func UserInit() error {
	if err := db.GetDB().First(&adminUser).Error; err == nil {
		return nil
	}
	adminUser = model.User{Username: "admin", Password: "admin"}
	if err := adminUser.HashPassword(); err != nil {
		return err
	}
	if err := db.GetDB().Create(&adminUser).Error; err != nil {
		return err
	}
	log.Warnf("created default admin account (admin/admin), change the password")
	return nil
}

func UserVerify(username, password string) error {
	if username != adminUser.Username {
		return fmt.Errorf("incorrect username")
	}
	if err := adminUser.ComparePassword(password); err != nil {
		return fmt.Errorf("incorrect password")
	}
	return nil
}

func UserChangePassword(oldPassword, newPassword string) error {
	if err := adminUser.ComparePassword(oldPassword); err != nil {
		return fmt.Errorf("incorrect old password")
	}
	adminUser.Password = newPassword
	if err := adminUser.HashPassword(); err != nil {
		return err
	}
	if err := db.GetDB().Model(&adminUser).Update("password", adminUser.Password).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func UserChangeUsername(newUsername string) error {
	if newUsername == adminUser.Username {
		return fmt.Errorf("username unchanged")
	}
	adminUser.Username = newUsername
	if err := db.GetDB().Model(&adminUser).Update("username", adminUser.Username).Error; err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	return nil
}

func UserGet() model.User {
	return adminUser
}
