package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/models"
	"github.com/mkrasilnikov/foodgram/backend/internal/service"
	"github.com/mkrasilnikov/foodgram/backend/internal/testhelpers"
)

func createRecipe(t *testing.T, db *gorm.DB, author *models.User, name string) *models.Recipe {
	t.Helper()

	ingredient := testhelpers.CreateTestIngredient(t, db, name+" base", "g")
	recipe, err := service.NewRecipeService(db).Create(context.Background(), author.ID,
		&service.RecipeInput{
			Name:        name,
			Text:        "Just cook it.",
			CookingTime: 10,
			Ingredients: []service.RecipeIngredientInput{{ID: ingredient.ID, Amount: 5}},
		})
	if err != nil {
		t.Fatalf("failed to create recipe %q: %v", name, err)
	}
	return recipe
}

func TestFavoriteLifecycle(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	author := testhelpers.CreateTestUser(t, db, "author")
	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	recipe := createRecipe(t, db, author, "Soup")
	svc := service.NewRelationService(db)
	ctx := context.Background()

	got, err := svc.AddFavorite(ctx, viewer.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, got.ID)

	_, err = svc.AddFavorite(ctx, viewer.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrConflict)

	require.NoError(t, svc.RemoveFavorite(ctx, viewer.ID, recipe.ID))
	assert.ErrorIs(t, svc.RemoveFavorite(ctx, viewer.ID, recipe.ID), service.ErrValidation)
}

func TestFavoriteUnknownRecipe(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	svc := service.NewRelationService(db)

	_, err := svc.AddFavorite(context.Background(), viewer.ID, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCartLifecycle(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	author := testhelpers.CreateTestUser(t, db, "author")
	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	recipe := createRecipe(t, db, author, "Stew")
	svc := service.NewRelationService(db)
	ctx := context.Background()

	got, err := svc.AddToCart(ctx, viewer.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, got.ID)

	_, err = svc.AddToCart(ctx, viewer.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrConflict)

	require.NoError(t, svc.RemoveFromCart(ctx, viewer.ID, recipe.ID))
	assert.ErrorIs(t, svc.RemoveFromCart(ctx, viewer.ID, recipe.ID), service.ErrValidation)
}

func TestFollowLifecycle(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	follower := testhelpers.CreateTestUser(t, db, "follower")
	author := testhelpers.CreateTestUser(t, db, "chef")
	svc := service.NewRelationService(db)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, follower.ID, author.ID))

	following, err := svc.IsFollowing(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, following)

	assert.ErrorIs(t, svc.Follow(ctx, follower.ID, author.ID), service.ErrConflict)

	require.NoError(t, svc.Unfollow(ctx, follower.ID, author.ID))
	assert.ErrorIs(t, svc.Unfollow(ctx, follower.ID, author.ID), service.ErrValidation)
}

func TestFollowSelf(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "narcissus")
	svc := service.NewRelationService(db)

	assert.ErrorIs(t, svc.Follow(context.Background(), user.ID, user.ID), service.ErrValidation)
}

func TestFollowUnknownAuthor(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "follower")
	svc := service.NewRelationService(db)

	err := svc.Follow(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSubscriptionsRecipesLimit(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	follower := testhelpers.CreateTestUser(t, db, "follower")
	chef := testhelpers.CreateTestUser(t, db, "chef")
	for _, name := range []string{"First", "Second", "Third"} {
		createRecipe(t, db, chef, name)
	}
	svc := service.NewRelationService(db)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, follower.ID, chef.ID))

	subs, err := svc.Subscriptions(ctx, follower.ID, 2)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, chef.ID, subs[0].Author.ID)
	// The limit trims the preview, not the count.
	assert.Len(t, subs[0].Recipes, 2)
	assert.EqualValues(t, 3, subs[0].RecipesCount)

	unlimited, err := svc.Subscriptions(ctx, follower.ID, 0)
	require.NoError(t, err)
	require.Len(t, unlimited, 1)
	assert.Len(t, unlimited[0].Recipes, 3)
}

func TestEdgeSets(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	author := testhelpers.CreateTestUser(t, db, "author")
	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	liked := createRecipe(t, db, author, "Liked")
	carted := createRecipe(t, db, author, "Carted")
	plain := createRecipe(t, db, author, "Plain")
	svc := service.NewRelationService(db)
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, viewer.ID, liked.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, viewer.ID, carted.ID)
	require.NoError(t, err)

	ids := []uint{liked.ID, carted.ID, plain.ID}

	favorited, err := svc.FavoritedSet(ctx, viewer.ID, ids)
	require.NoError(t, err)
	assert.True(t, favorited[liked.ID])
	assert.False(t, favorited[plain.ID])

	inCart, err := svc.InCartSet(ctx, viewer.ID, ids)
	require.NoError(t, err)
	assert.True(t, inCart[carted.ID])
	assert.False(t, inCart[liked.ID])
}
