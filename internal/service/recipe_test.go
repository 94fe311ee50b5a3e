package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
	"github.com/mkrasilnikov/foodgram/backend/internal/service"
	"github.com/mkrasilnikov/foodgram/backend/internal/testhelpers"
)

func setupRecipeTest(t *testing.T) (*gorm.DB, *service.RecipeService, *models.User) {
	db := testhelpers.SetupTestDatabase(t)
	author := testhelpers.CreateTestUser(t, db, "author")
	return db, service.NewRecipeService(db), author
}

func validInput(ingredientIDs []uint, tagIDs []uint) *service.RecipeInput {
	ingredients := make([]service.RecipeIngredientInput, 0, len(ingredientIDs))
	for _, id := range ingredientIDs {
		ingredients = append(ingredients, service.RecipeIngredientInput{ID: id, Amount: 10})
	}
	return &service.RecipeInput{
		Name:        "Borscht",
		Text:        "Cook it slowly.",
		CookingTime: 90,
		Tags:        tagIDs,
		Ingredients: ingredients,
	}
}

func countRecipes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count recipes: %v", err)
	}
	return count
}

func TestCreateRecipe(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	sugar := testhelpers.CreateTestIngredient(t, db, "Sugar", "g")
	tag := testhelpers.CreateTestTag(t, db, "dinner")

	in := validInput([]uint{salt.ID, sugar.ID}, []uint{tag.ID})
	in.Ingredients[0].Amount = 100
	in.Ingredients[1].Amount = 50

	recipe, err := svc.Create(context.Background(), author.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Borscht", recipe.Name)
	require.NotNil(t, recipe.AuthorID)
	assert.Equal(t, author.ID, *recipe.AuthorID)
	require.Len(t, recipe.Ingredients, 2)
	// Lines come back in request order.
	assert.Equal(t, salt.ID, recipe.Ingredients[0].IngredientID)
	assert.Equal(t, 100, recipe.Ingredients[0].Amount)
	assert.Equal(t, sugar.ID, recipe.Ingredients[1].IngredientID)
	assert.Equal(t, 50, recipe.Ingredients[1].Amount)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "dinner", recipe.Tags[0].Name)
}

func TestCreateRecipeDuplicateTag(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	tag := testhelpers.CreateTestTag(t, db, "dinner")

	_, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID}, []uint{tag.ID, tag.ID}))
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Zero(t, countRecipes(t, db))
}

func TestCreateRecipeDuplicateIngredient(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")

	_, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID, salt.ID}, nil))
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Zero(t, countRecipes(t, db))
}

func TestCreateRecipeNonPositiveAmount(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")

	for _, amount := range []int{0, -5} {
		in := validInput([]uint{salt.ID}, nil)
		in.Ingredients[0].Amount = amount
		_, err := svc.Create(context.Background(), author.ID, in)
		assert.ErrorIs(t, err, service.ErrValidation, "amount %d", amount)
	}
	assert.Zero(t, countRecipes(t, db))
}

func TestCreateRecipeEmptyIngredients(t *testing.T) {
	db, svc, author := setupRecipeTest(t)

	in := validInput(nil, nil)
	_, err := svc.Create(context.Background(), author.ID, in)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Zero(t, countRecipes(t, db))
}

func TestCreateRecipeUnknownIngredient(t *testing.T) {
	db, svc, author := setupRecipeTest(t)

	_, err := svc.Create(context.Background(), author.ID, validInput([]uint{9999}, nil))
	assert.ErrorIs(t, err, service.ErrNotFound)
	// Nothing may survive the rollback.
	assert.Zero(t, countRecipes(t, db))
}

func TestCreateRecipeUnknownTag(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")

	_, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID}, []uint{9999}))
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Zero(t, countRecipes(t, db))
}

func TestUpdateRecipeReplacesIngredientSet(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	sugar := testhelpers.CreateTestIngredient(t, db, "Sugar", "g")
	pepper := testhelpers.CreateTestIngredient(t, db, "Pepper", "g")

	recipe, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID, sugar.ID}, nil))
	require.NoError(t, err)

	in := validInput([]uint{pepper.ID}, nil)
	in.Ingredients[0].Amount = 3
	updated, err := svc.Update(context.Background(), recipe.ID, author, in)
	require.NoError(t, err)

	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, pepper.ID, updated.Ingredients[0].IngredientID)
	assert.Equal(t, 3, updated.Ingredients[0].Amount)

	var rows int64
	require.NoError(t, db.Model(&models.IngredientInRecipe{}).
		Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestUpdateRecipeReplacesTags(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	breakfast := testhelpers.CreateTestTag(t, db, "breakfast")
	dinner := testhelpers.CreateTestTag(t, db, "dinner")

	recipe, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID}, []uint{breakfast.ID}))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), recipe.ID, author,
		validInput([]uint{salt.ID}, []uint{dinner.ID}))
	require.NoError(t, err)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Name)
}

func TestUpdateRecipeRollsBackOnUnknownTag(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	sugar := testhelpers.CreateTestIngredient(t, db, "Sugar", "g")

	recipe, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID, sugar.ID}, nil))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), recipe.ID, author,
		validInput([]uint{salt.ID}, []uint{9999}))
	assert.ErrorIs(t, err, service.ErrNotFound)

	// The old ingredient set must still be intact.
	current, err := svc.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Len(t, current.Ingredients, 2)
}

func TestUpdateRecipeForbiddenForNonAuthor(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	stranger := testhelpers.CreateTestUser(t, db, "stranger")

	recipe, err := svc.Create(context.Background(), author.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), recipe.ID, stranger, validInput([]uint{salt.ID}, nil))
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestUpdateRecipeAdminOverride(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	admin := testhelpers.CreateTestAdmin(t, db, "admin")

	recipe, err := svc.Create(context.Background(), author.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)

	in := validInput([]uint{salt.ID}, nil)
	in.Name = "Moderated"
	updated, err := svc.Update(context.Background(), recipe.ID, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Name)
}

func TestDeleteRecipe(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")

	recipe, err := svc.Create(context.Background(), author.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), recipe.ID, author))
	_, err = svc.Get(context.Background(), recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var rows int64
	require.NoError(t, db.Model(&models.IngredientInRecipe{}).
		Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestDeleteAuthorKeepsRecipe(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")

	recipe, err := svc.Create(context.Background(), author.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)

	require.NoError(t, db.Delete(author).Error)

	current, err := svc.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, current.AuthorID)
}

func TestListRecipesFilters(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	breakfast := testhelpers.CreateTestTag(t, db, "breakfast")
	other := testhelpers.CreateTestUser(t, db, "other")

	tagged, err := svc.Create(context.Background(), author.ID,
		validInput([]uint{salt.ID}, []uint{breakfast.ID}))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)

	byAuthor, err := svc.List(context.Background(), nil,
		service.RecipeFilter{Author: author.ID.String()})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, tagged.ID, byAuthor[0].ID)

	byTag, err := svc.List(context.Background(), nil,
		service.RecipeFilter{TagSlugs: []string{"breakfast"}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, tagged.ID, byTag[0].ID)
}

func TestListRecipesFavoritedFilter(t *testing.T) {
	db, svc, author := setupRecipeTest(t)
	salt := testhelpers.CreateTestIngredient(t, db, "Salt", "g")
	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	relations := service.NewRelationService(db)

	liked, err := svc.Create(context.Background(), author.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), author.ID, validInput([]uint{salt.ID}, nil))
	require.NoError(t, err)

	_, err = relations.AddFavorite(context.Background(), viewer.ID, liked.ID)
	require.NoError(t, err)

	filtered, err := svc.List(context.Background(), &viewer.ID,
		service.RecipeFilter{Favorited: true})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, liked.ID, filtered[0].ID)

	// Anonymous callers get the unfiltered list, not an error.
	all, err := svc.List(context.Background(), nil, service.RecipeFilter{Favorited: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
