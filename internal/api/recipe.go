package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkrasilnikov/foodgram/backend/internal/middleware"
	"github.com/mkrasilnikov/foodgram/backend/internal/models"
	"github.com/mkrasilnikov/foodgram/backend/internal/service"
)

type RecipeHandler struct {
	db            *gorm.DB
	recipeService *service.RecipeService
	relations     *service.RelationService
	shoppingList  *service.ShoppingListService
	authService   *service.AuthService
	rateLimiter   *middleware.RateLimiter
}

func NewRecipeHandler(
	db *gorm.DB,
	recipeService *service.RecipeService,
	relations *service.RelationService,
	shoppingList *service.ShoppingListService,
	authService *service.AuthService,
	rateLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		db:            db,
		recipeService: recipeService,
		relations:     relations,
		shoppingList:  shoppingList,
		authService:   authService,
		rateLimiter:   rateLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	recipes.Use(middleware.OptionalAuthMiddleware(h.authService))
	{
		recipes.GET("", h.List)
		recipes.GET("/:id", h.Get)
		recipes.POST("", middleware.AuthMiddleware(h.authService), h.rateLimiter.Middleware(), h.Create)
		recipes.PUT("/:id", middleware.AuthMiddleware(h.authService), h.rateLimiter.Middleware(),
			middleware.AuthorOrReadOnly(h.db, h.authService), h.Update)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.authService),
			middleware.AuthorOrReadOnly(h.db, h.authService), h.Delete)

		recipes.POST("/:id/favorite", middleware.AuthMiddleware(h.authService), h.Favorite)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(h.authService), h.Unfavorite)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.RemoveFromCart)

		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.authService), h.DownloadShoppingCart)
	}
}

// buildResponses assembles the full recipe shape, resolving the
// viewer-dependent flags in batch. Anonymous viewers get them as false.
func (h *RecipeHandler) buildResponses(c *gin.Context, recipes []models.Recipe) ([]RecipeResponse, error) {
	ids := make([]uint, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
	}

	var favorited, inCart map[uint]bool
	following := make(map[uuid.UUID]bool)
	if viewerID, ok := middleware.UserID(c); ok {
		var err error
		favorited, err = h.relations.FavoritedSet(c.Request.Context(), viewerID, ids)
		if err != nil {
			return nil, err
		}
		inCart, err = h.relations.InCartSet(c.Request.Context(), viewerID, ids)
		if err != nil {
			return nil, err
		}
		for i := range recipes {
			author := recipes[i].Author
			if author == nil || author.ID == viewerID {
				continue
			}
			if _, seen := following[author.ID]; seen {
				continue
			}
			follows, err := h.relations.IsFollowing(c.Request.Context(), viewerID, author.ID)
			if err != nil {
				return nil, err
			}
			following[author.ID] = follows
		}
	}

	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]

		var author *UserResponse
		if r.Author != nil {
			resp := newUserResponse(r.Author, following[r.Author.ID])
			author = &resp
		}

		ingredients := make([]RecipeIngredientResponse, 0, len(r.Ingredients))
		for _, row := range r.Ingredients {
			ingredients = append(ingredients, RecipeIngredientResponse{
				ID:              row.IngredientID,
				Name:            row.Ingredient.Name,
				MeasurementUnit: row.Ingredient.MeasurementUnit,
				Amount:          row.Amount,
			})
		}

		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}

		out = append(out, RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           author,
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		})
	}
	return out, nil
}

// List serves the recipe feed. The is_favorited and is_in_shopping_cart
// filters only apply to authenticated viewers; anonymous callers get the
// unfiltered list rather than an error.
func (h *RecipeHandler) List(c *gin.Context) {
	filter := service.RecipeFilter{
		Author:    c.Query("author"),
		Favorited: c.Query("is_favorited") == "1" || strings.EqualFold(c.Query("is_favorited"), "true"),
		InCart:    c.Query("is_in_shopping_cart") == "1" || strings.EqualFold(c.Query("is_in_shopping_cart"), "true"),
	}
	if tags := c.QueryArray("tags"); len(tags) > 0 {
		filter.TagSlugs = tags
	}

	var viewer *uuid.UUID
	if viewerID, ok := middleware.UserID(c); ok {
		viewer = &viewerID
	}

	recipes, err := h.recipeService.List(c.Request.Context(), viewer, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out, err := h.buildResponses(c, recipes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	recipe, err := h.recipeService.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out, err := h.buildResponses(c, []models.Recipe{*recipe})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out[0])
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var input service.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), userID, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out, err := h.buildResponses(c, []models.Recipe{*recipe})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out[0])
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input service.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), id, actor, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out, err := h.buildResponses(c, []models.Recipe{*recipe})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out[0])
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.recipeService.Delete(c.Request.Context(), id, actor); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// actor returns the caller's user record, loading it if no policy
// middleware did already.
func (h *RecipeHandler) actor(c *gin.Context) (*models.User, bool) {
	if actor, ok := middleware.Actor(c); ok {
		return actor, true
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return user, true
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addEdge(c, h.relations.AddFavorite)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeEdge(c, h.relations.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addEdge(c, h.relations.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeEdge(c, h.relations.RemoveFromCart)
}

func (h *RecipeHandler) addEdge(c *gin.Context, add func(ctx context.Context, userID uuid.UUID, recipeID uint) (*models.Recipe, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	recipe, err := add(c.Request.Context(), userID, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeBrief(recipe))
}

func (h *RecipeHandler) removeEdge(c *gin.Context, remove func(ctx context.Context, userID uuid.UUID, recipeID uint) error) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := remove(c.Request.Context(), userID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart streams the aggregated shopping list as a PDF.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	lines, err := h.shoppingList.Build(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	pdf, err := h.shoppingList.RenderPDF(lines)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_list.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
