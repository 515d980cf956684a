package service

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/client"
	"github.com/hojimahmudov/orderbot/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitSQLiteClient(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, chatID int64) *model.User {
	t.Helper()
	user := &model.User{
		ChatID:      chatID,
		PhoneNumber: fmt.Sprintf("+99890%07d", chatID),
		FirstName:   "Test",
		Locale:      model.LocaleUZ,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, available bool) *model.Product {
	t.Helper()
	category := &model.Category{NameUZ: "Fast food", NameRU: "Фастфуд", IsActive: true}
	require.NoError(t, db.Create(category).Error)
	product := &model.Product{
		CategoryID:  category.ID,
		NameUZ:      name,
		NameRU:      name,
		Price:       price,
		IsAvailable: available,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedBranch(t *testing.T, db *gorm.DB, opensAt, closesAt string) *model.Branch {
	t.Helper()
	branch := &model.Branch{
		NameUZ:                  "Markaziy filial",
		NameRU:                  "Центральный филиал",
		Address:                 "Amir Temur 1",
		OpensAt:                 opensAt,
		ClosesAt:                closesAt,
		AvgPreparationMinutes:   20,
		AvgDeliveryExtraMinutes: 30,
		IsActive:                true,
	}
	require.NoError(t, db.Create(branch).Error)
	return branch
}

func seedCartLine(t *testing.T, db *gorm.DB, userID int64, product *model.Product, quantity int) *model.Cart {
	t.Helper()
	var cart model.Cart
	require.NoError(t, db.Where(model.Cart{UserID: userID}).FirstOrCreate(&cart).Error)
	require.NoError(t, db.Create(&model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  quantity,
	}).Error)
	return &cart
}
