package repository

import (
	"context"

	"github.com/RohitKattimani/MedReadApp/internal/database"
	"github.com/RohitKattimani/MedReadApp/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func CreateUser(email, password, name string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		PublicID: models.NewID("user"),
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
	}
	result := database.DB.Create(user)
	return user, result.Error
}

// UpsertProviderUser creates or refreshes an account from external provider
// identity data. Provider accounts carry no password hash.
func UpsertProviderUser(ctx context.Context, email, name, picture string) (*models.User, error) {
	var user models.User
	err := database.DB.WithContext(ctx).First(&user, "email = ?", email).Error
	if err == nil {
		user.Name = name
		user.Picture = picture
		if err := database.DB.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}

	user = models.User{
		PublicID: models.NewID("user"),
		Email:    email,
		Name:     name,
		Picture:  picture,
	}
	if err := database.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := database.DB.WithContext(ctx).First(&user, "email = ?", email)
	return &user, result.Error
}

func GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := database.DB.WithContext(ctx).First(&user, id)
	return &user, result.Error
}
