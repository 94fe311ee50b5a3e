package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/middleware"
	"github.com/mkrasilnikov/foodgram/backend/internal/service"
)

// SetupAPI wires services and handlers onto /api/v1.
func SetupAPI(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, jwtSecret string) {
	v1 := router.Group("/api/v1")
	{
		authService := service.NewAuthService(db, jwtSecret)
		tagService := service.NewTagService(db)
		ingredientService := service.NewIngredientService(db)
		recipeService := service.NewRecipeService(db)
		relationService := service.NewRelationService(db)
		shoppingListService := service.NewShoppingListService(db)

		rateLimiter := middleware.NewRecipeMutationRateLimiter(redisClient)

		authHandler := NewAuthHandler(authService)
		userHandler := NewUserHandler(authService, relationService)
		tagHandler := NewTagHandler(tagService, authService)
		ingredientHandler := NewIngredientHandler(ingredientService, authService)
		recipeHandler := NewRecipeHandler(db, recipeService, relationService,
			shoppingListService, authService, rateLimiter)

		authHandler.RegisterRoutes(v1)
		userHandler.RegisterRoutes(v1)
		tagHandler.RegisterRoutes(v1)
		ingredientHandler.RegisterRoutes(v1)
		recipeHandler.RegisterRoutes(v1)
	}
}
