package services

import (
	"context"
	"strings"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/repository"
)

// categoryService handles category-related business logic.
type categoryService struct {
	store repository.Store
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(store repository.Store) CategoryServicer {
	return &categoryService{store: store}
}

// CreateCategory creates a new category, optionally nested under a top-level
// parent of the same type.
func (s *categoryService) CreateCategory(ctx context.Context, userID string, draft CategoryDraft) (*models.Category, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if draft.Type != models.CategoryTypeIncome && draft.Type != models.CategoryTypeExpense {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unsupported category type %q", draft.Type)
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Type:        draft.Type,
		Description: draft.Description,
		Icon:        draft.Icon,
		Color:       draft.Color,
		ParentID:    draft.ParentID,
	}

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		if _, err := r.Users().FindByID(ctx, userID); err != nil {
			return storeErr(err, apperrors.ErrUserNotFound)
		}
		if err := checkCategoryName(ctx, r.Categories(), userID, name, ""); err != nil {
			return err
		}
		if draft.ParentID != nil {
			if err := checkParent(ctx, r.Categories(), userID, *draft.ParentID, draft.Type); err != nil {
				return err
			}
		}
		return writeErr(r.Categories().Create(ctx, category),
			apperrors.Newf(apperrors.ErrDuplicateCategoryName, "A category named %q already exists", name), apperrors.ErrCategoryNotFound)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user,
// optionally restricted to one type.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Normalize()

	categories, total, err := s.store.Categories().ListByUser(ctx, userID, categoryType, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page, total)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	category, err := s.store.Categories().FindByIDAndUser(ctx, categoryID, userID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrCategoryNotFound)
	}
	return category, nil
}

// UpdateCategory updates an existing category.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID string, changes CategoryChanges) (*models.Category, error) {
	var category *models.Category
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		category, err = r.Categories().FindByIDAndUser(ctx, categoryID, userID)
		if err != nil {
			return storeErr(err, apperrors.ErrCategoryNotFound)
		}

		updates := make(map[string]any)
		if changes.Name != nil {
			name := strings.TrimSpace(*changes.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
			}
			if name != category.Name {
				if err := checkCategoryName(ctx, r.Categories(), userID, name, categoryID); err != nil {
					return err
				}
				updates["name"] = name
			}
		}
		if changes.Description != nil {
			updates["description"] = *changes.Description
		}
		if changes.Icon != nil {
			updates["icon"] = *changes.Icon
		}
		if changes.Color != nil {
			updates["color"] = *changes.Color
		}
		if changes.Parent != nil {
			if parentID := changes.Parent.ID; parentID != nil {
				if *parentID == categoryID {
					return apperrors.ErrSelfParentCategory
				}
				children, err := r.Categories().CountChildren(ctx, categoryID)
				if err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if children > 0 {
					return apperrors.ErrCategoryTooDeep
				}
				if err := checkParent(ctx, r.Categories(), userID, *parentID, category.Type); err != nil {
					return err
				}
			}
			updates["parent_id"] = changes.Parent.ID
		}

		return writeErr(r.Categories().Update(ctx, category, updates), apperrors.ErrDuplicateCategoryName, apperrors.ErrCategoryNotFound)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deletes a category that has no subcategories, transactions
// or budgets.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	return s.store.Atomic(ctx, func(r repository.Repositories) error {
		category, err := r.Categories().FindByIDAndUser(ctx, categoryID, userID)
		if err != nil {
			return storeErr(err, apperrors.ErrCategoryNotFound)
		}

		children, err := r.Categories().CountChildren(ctx, categoryID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if children > 0 {
			return apperrors.Newf(apperrors.ErrCategoryHasChildren, "Category %q has %d subcategories", category.Name, children)
		}

		txCount, err := r.Transactions().CountByCategory(ctx, categoryID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if txCount > 0 {
			return apperrors.Newf(apperrors.ErrCategoryInUse, "Category %q is used by %d transactions", category.Name, txCount)
		}

		budgetCount, err := r.Budgets().CountByCategory(ctx, categoryID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if budgetCount > 0 {
			return apperrors.Newf(apperrors.ErrCategoryHasBudgets, "Category %q is used by %d budgets", category.Name, budgetCount)
		}

		return storeErr(r.Categories().Delete(ctx, category), apperrors.ErrCategoryNotFound)
	})
}

func checkCategoryName(ctx context.Context, repo repository.CategoryRepository, userID, name, excludeID string) error {
	exists, err := repo.ExistsByName(ctx, userID, name, excludeID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if exists {
		return apperrors.Newf(apperrors.ErrDuplicateCategoryName, "A category named %q already exists", name)
	}
	return nil
}

// checkParent verifies that parentID names a top-level category of the user
// with the given type.
func checkParent(ctx context.Context, repo repository.CategoryRepository, userID, parentID string, categoryType models.CategoryType) error {
	parent, err := repo.FindByIDAndUser(ctx, parentID, userID)
	if err != nil {
		return storeErr(err, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "Parent category not found"))
	}
	if parent.ParentID != nil {
		return apperrors.ErrCategoryTooDeep
	}
	if parent.Type != categoryType {
		return apperrors.Newf(apperrors.ErrCategoryTypeMismatch,
			"Subcategory type %s does not match parent type %s", categoryType, parent.Type)
	}
	return nil
}

// resolveCategory loads a category referenced by a ledger operation and
// verifies it belongs to userID and suits a transaction of txType.
func resolveCategory(ctx context.Context, repo repository.CategoryRepository, userID, categoryID string, txType models.TransactionType) (*models.Category, error) {
	category, err := repo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, storeErr(err, apperrors.Newf(apperrors.ErrCategoryNotFound, "Category %s not found", categoryID))
	}
	if category.UserID != userID {
		return nil, apperrors.Newf(apperrors.ErrCategoryOwnership, "Category %s does not belong to user", categoryID)
	}
	want, ok := txType.CategoryType()
	if !ok {
		return nil, apperrors.ErrTransferDestination
	}
	if category.Type != want {
		return nil, apperrors.Newf(apperrors.ErrCategoryTypeMismatch,
			"Category %q is %s but the transaction is %s", category.Name, category.Type, txType)
	}
	return category, nil
}
