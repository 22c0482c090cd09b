package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := setupServices(t)

		category, err := svc.categories.CreateCategory("Groceries", "#FF4081", "cart")
		testutil.AssertNoError(t, err)
		if category.Name != "Groceries" {
			t.Errorf("expected Groceries, got %s", category.Name)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		svc := setupServices(t)

		_, err := svc.categories.CreateCategory("", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		svc := setupServices(t)
		category := testutil.CreateTestCategory(t, svc.db)

		color := "#00C853"
		updated, err := svc.categories.UpdateCategory(category.ID, nil, &color, nil)
		testutil.AssertNoError(t, err)
		if updated.Color != color {
			t.Errorf("expected %s, got %s", color, updated.Color)
		}
		if updated.Name != category.Name {
			t.Error("name should be unchanged")
		}
	})

	t.Run("missing_category", func(t *testing.T) {
		svc := setupServices(t)

		name := "Nope"
		_, err := svc.categories.UpdateCategory("00000000-0000-0000-0000-000000000000", &name, nil, nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("unused_category", func(t *testing.T) {
		svc := setupServices(t)
		category := testutil.CreateTestCategory(t, svc.db)

		testutil.AssertNoError(t, svc.categories.DeleteCategory(category.ID))

		_, err := svc.categories.GetCategoryByID(category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("referenced_category", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		category := testutil.CreateTestCategory(t, svc.db)

		_, err := svc.txns.CreateTransaction(account.ID, &category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(20), "Coffee", nil, nil)
		testutil.AssertNoError(t, err)

		testutil.AssertAppError(t, svc.categories.DeleteCategory(category.ID), "CATEGORY_IN_USE")
	})

	t.Run("missing_category", func(t *testing.T) {
		svc := setupServices(t)

		err := svc.categories.DeleteCategory("00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}
