package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/auth"
	"foodgram/internal/recipe"
	"foodgram/internal/shopping"
	"foodgram/internal/user"
)

// RecipeStore defines the recipe and catalog operations handlers depend on.
type RecipeStore interface {
	GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error)
	ListRecipes(ctx context.Context, f recipe.Filter) ([]*recipe.Recipe, error)
	CreateRecipe(ctx context.Context, r *recipe.Recipe, lines []recipe.Line, tagIDs []int64) error
	UpdateRecipe(ctx context.Context, r *recipe.Recipe, lines []recipe.Line, tagIDs []int64) error
	DeleteRecipe(ctx context.Context, id int64) error
	ListSimplifiedByIDs(ctx context.Context, ids []int64) ([]recipe.Simplified, error)
	ListSimplifiedByAuthor(ctx context.Context, authorID int64, limit int) ([]recipe.Simplified, error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]recipe.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*recipe.Ingredient, error)
	ListTags(ctx context.Context) ([]recipe.Tag, error)
	GetTag(ctx context.Context, id int64) (*recipe.Tag, error)
}

// MembershipSet is the generic (user, recipe) relation with toggle
// semantics, instantiated for the cart and for favorites.
type MembershipSet interface {
	Label() string
	Add(ctx context.Context, userID, recipeID int64) (bool, error)
	Remove(ctx context.Context, userID, recipeID int64) (bool, error)
	Contains(ctx context.Context, userID, recipeID int64) (bool, error)
	ListRecipeIDs(ctx context.Context, userID int64) ([]int64, error)
}

// UserStore defines the account and subscription operations handlers depend
// on.
type UserStore interface {
	Create(ctx context.Context, u *user.User, password string) error
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]user.User, error)
	Follow(ctx context.Context, userID, authorID int64) (bool, error)
	Unfollow(ctx context.Context, userID, authorID int64) (bool, error)
	ListFollowedAuthors(ctx context.Context, userID int64) ([]user.User, error)
}

// ShoppingList builds the downloadable report for one user's cart.
type ShoppingList interface {
	BuildReport(ctx context.Context, userID int64) (string, error)
}

// ImageStore persists base64-submitted images and returns the stored name.
type ImageStore interface {
	SaveBase64(data string) (string, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Recipes      RecipeStore
	Cart         MembershipSet
	Favorites    MembershipSet
	Users        UserStore
	ShoppingList ShoppingList
	Images       ImageStore
	TokenSecret  []byte
}

// NewHandler creates a new Handler.
func NewHandler(recipes RecipeStore, cart, favorites MembershipSet, users UserStore, shoppingList ShoppingList, images ImageStore, tokenSecret []byte) *Handler {
	return &Handler{
		Recipes:      recipes,
		Cart:         cart,
		Favorites:    favorites,
		Users:        users,
		ShoppingList: shoppingList,
		Images:       images,
		TokenSecret:  tokenSecret,
	}
}

const requestTimeout = 5 * time.Second

// authorView is the author object embedded in recipe representations.
type authorView struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// recipeView is the full recipe representation with per-user annotations.
type recipeView struct {
	ID               int64                   `json:"id"`
	Tags             []recipe.Tag            `json:"tags"`
	Author           authorView              `json:"author"`
	Ingredients      []recipe.IngredientLine `json:"ingredients"`
	IsFavorited      bool                    `json:"is_favorited"`
	IsInShoppingCart bool                    `json:"is_in_shopping_cart"`
	Name             string                  `json:"name"`
	Image            string                  `json:"image"`
	Text             string                  `json:"text"`
	CookingTime      int                     `json:"cooking_time"`
}

// subscriptionView is one followed author with their recipes.
type subscriptionView struct {
	ID           int64               `json:"id"`
	Email        string              `json:"email"`
	Username     string              `json:"username"`
	FirstName    string              `json:"first_name"`
	LastName     string              `json:"last_name"`
	IsSubscribed bool                `json:"is_subscribed"`
	Recipes      []recipe.Simplified `json:"recipes"`
	RecipesCount int                 `json:"recipes_count"`
}

// --- Catalogs ---

// ListIngredients returns the ingredient catalog, optionally filtered by
// name prefix.
func (h *Handler) ListIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ingredients, err := h.Recipes.ListIngredients(ctx, c.Query("name"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// GetIngredient returns one catalog ingredient.
func (h *Handler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ing, err := h.Recipes.GetIngredient(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

// ListTags returns every tag.
func (h *Handler) ListTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tags, err := h.Recipes.ListTags(ctx)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

// GetTag returns one tag.
func (h *Handler) GetTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tag, err := h.Recipes.GetTag(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// --- Recipes ---

// ListRecipes returns recipes filtered by tag slugs (any-of), author and the
// current user's favorites/cart. The membership restrictions resolve through
// one ListRecipeIDs call each, never a per-row query.
func (h *Handler) ListRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	userID := auth.UserID(c)

	filter := recipe.Filter{TagSlugs: c.QueryArray("tags")}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseInt(author, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректный автор."})
			return
		}
		filter.AuthorID = id
	}

	var favIDs, cartIDs []int64
	var err error
	if userID != 0 {
		if favIDs, err = h.Favorites.ListRecipeIDs(ctx, userID); err != nil {
			h.serverError(c, err)
			return
		}
		if cartIDs, err = h.Cart.ListRecipeIDs(ctx, userID); err != nil {
			h.serverError(c, err)
			return
		}
		if boolQuery(c, "is_favorited") {
			filter.IDs = favIDs
		}
		if boolQuery(c, "is_in_shopping_cart") {
			if filter.IDs != nil {
				filter.IDs = intersect(filter.IDs, cartIDs)
			} else {
				filter.IDs = cartIDs
			}
		}
	}

	recipes, err := h.Recipes.ListRecipes(ctx, filter)
	if err != nil {
		h.serverError(c, err)
		return
	}

	views, err := h.recipeViews(ctx, userID, recipes, favIDs, cartIDs)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetRecipe returns one recipe with per-user annotations.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	view, err := h.singleRecipeView(ctx, auth.UserID(c), r)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// recipeInput is the create/update payload. Pointer fields distinguish
// "omitted" from zero values on PATCH.
type recipeInput struct {
	Ingredients []recipe.Submission `json:"ingredients"`
	Tags        []int64             `json:"tags"`
	Image       string              `json:"image"`
	Name        *string             `json:"name"`
	Text        *string             `json:"text"`
	CookingTime *int                `json:"cooking_time"`
}

// CreateRecipe publishes a new recipe. The ingredient list is validated
// before anything is written, and the recipe row, lines and tag links are
// inserted in one transaction.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var input recipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректный запрос."})
		return
	}

	lines, err := recipe.ValidateSubmissions(input.Ingredients)
	if err != nil {
		validationError(c, err)
		return
	}

	r := &recipe.Recipe{AuthorID: auth.UserID(c)}
	if input.Name != nil {
		r.Name = *input.Name
	}
	if input.Text != nil {
		r.Text = *input.Text
	}
	if input.CookingTime != nil {
		r.CookingTime = *input.CookingTime
	}
	if r.CookingTime < 1 {
		r.CookingTime = 1
	}
	if input.Image != "" {
		name, err := h.Images.SaveBase64(input.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректное изображение."})
			return
		}
		r.Image = "/media/" + name
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Recipes.CreateRecipe(ctx, r, lines, input.Tags); err != nil {
		h.serverError(c, err)
		return
	}

	created, err := h.Recipes.GetRecipe(ctx, r.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	view, err := h.singleRecipeView(ctx, r.AuthorID, created)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateRecipe replaces the submitted fields of an owned recipe. When an
// ingredient list or tag set is supplied the whole set is replaced
// atomically.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	existing, err := h.Recipes.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	userID := auth.UserID(c)
	if existing.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"errors": "Можно изменять только свои рецепты."})
		return
	}

	var input recipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректный запрос."})
		return
	}

	var lines []recipe.Line
	if input.Ingredients != nil {
		lines, err = recipe.ValidateSubmissions(input.Ingredients)
		if err != nil {
			validationError(c, err)
			return
		}
	}

	if input.Name != nil {
		existing.Name = *input.Name
	}
	if input.Text != nil {
		existing.Text = *input.Text
	}
	if input.CookingTime != nil {
		existing.CookingTime = *input.CookingTime
	}
	if input.Image != "" {
		name, err := h.Images.SaveBase64(input.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректное изображение."})
			return
		}
		existing.Image = "/media/" + name
	}

	if err := h.Recipes.UpdateRecipe(ctx, existing, lines, input.Tags); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	updated, err := h.Recipes.GetRecipe(ctx, id)
	if err != nil {
		h.serverError(c, err)
		return
	}
	view, err := h.singleRecipeView(ctx, userID, updated)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteRecipe removes an owned recipe; its lines and membership rows
// cascade away with it.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	existing, err := h.Recipes.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	if existing.AuthorID != auth.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"errors": "Можно удалять только свои рецепты."})
		return
	}

	if err := h.Recipes.DeleteRecipe(ctx, id); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Cart / favorite toggles ---

// AddToCart puts a recipe into the current user's cart.
func (h *Handler) AddToCart(c *gin.Context) {
	h.addMembership(c, h.Cart)
}

// RemoveFromCart takes a recipe out of the current user's cart.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, h.Cart)
}

// AddToFavorites marks a recipe as a favorite of the current user.
func (h *Handler) AddToFavorites(c *gin.Context) {
	h.addMembership(c, h.Favorites)
}

// RemoveFromFavorites unmarks a favorite of the current user.
func (h *Handler) RemoveFromFavorites(c *gin.Context) {
	h.removeMembership(c, h.Favorites)
}

func (h *Handler) addMembership(c *gin.Context, set MembershipSet) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	created, err := set.Add(ctx, auth.UserID(c), id)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fmt.Sprintf("Уже есть в %s.", set.Label())})
		return
	}

	c.JSON(http.StatusCreated, recipe.Simplified{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	})
}

func (h *Handler) removeMembership(c *gin.Context, set MembershipSet) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if _, err := h.Recipes.GetRecipe(ctx, id); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	removed, err := set.Remove(ctx, auth.UserID(c), id)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fmt.Sprintf("Отсутствует в %s.", set.Label())})
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart serves the aggregated shopping list as a plain-text
// attachment. An empty cart downloads an empty file.
func (h *Handler) DownloadShoppingCart(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	report, err := h.ShoppingList.BuildReport(ctx, auth.UserID(c))
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shopping.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

// --- Users & subscriptions ---

type registerInput struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required"`
}

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректный запрос."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	u := &user.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if err := h.Users.Create(ctx, u, input.Password); err != nil {
		if errors.Is(err, user.ErrExists) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "Пользователь с таким именем или почтой уже существует."})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	})
}

type loginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Некорректный запрос."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "Неверные учетные данные."})
			return
		}
		h.serverError(c, err)
		return
	}

	token, err := auth.NewToken(u.ID, h.TokenSecret)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

// Me returns the current user's profile.
func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, auth.UserID(c))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	})
}

// Subscribe follows an author. Self-subscription and duplicate subscription
// are client errors.
func (h *Handler) Subscribe(c *gin.Context) {
	authorID, ok := pathID(c)
	if !ok {
		return
	}
	userID := auth.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	author, err := h.Users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}
	if userID == authorID {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Самоподписка запрещена."})
		return
	}

	created, err := h.Users.Follow(ctx, userID, authorID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Вы уже подписаны на этого пользователя"})
		return
	}

	view, err := h.subscriptionView(ctx, author, recipesLimit(c))
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Unsubscribe unfollows an author; an absent subscription is a 404, matching
// the toggle's lookup semantics.
func (h *Handler) Unsubscribe(c *gin.Context) {
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, err)
		return
	}

	removed, err := h.Users.Unfollow(ctx, auth.UserID(c), authorID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if !removed {
		notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSubscriptions returns every followed author with their recipes.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	authors, err := h.Users.ListFollowedAuthors(ctx, auth.UserID(c))
	if err != nil {
		h.serverError(c, err)
		return
	}

	limit := recipesLimit(c)
	views := make([]subscriptionView, 0, len(authors))
	for i := range authors {
		view, err := h.subscriptionView(ctx, &authors[i], limit)
		if err != nil {
			h.serverError(c, err)
			return
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

// --- View assembly ---

// recipeViews annotates recipes with author data and the current user's
// favorite/cart membership. favIDs and cartIDs are reused when the caller
// already fetched them; for anonymous users both annotations stay false.
func (h *Handler) recipeViews(ctx context.Context, userID int64, recipes []*recipe.Recipe, favIDs, cartIDs []int64) ([]recipeView, error) {
	if userID != 0 {
		var err error
		if favIDs == nil {
			if favIDs, err = h.Favorites.ListRecipeIDs(ctx, userID); err != nil {
				return nil, err
			}
		}
		if cartIDs == nil {
			if cartIDs, err = h.Cart.ListRecipeIDs(ctx, userID); err != nil {
				return nil, err
			}
		}
	}
	favSet := toSet(favIDs)
	cartSet := toSet(cartIDs)

	authorIDs := make([]int64, 0, len(recipes))
	seen := make(map[int64]bool)
	for _, r := range recipes {
		if !seen[r.AuthorID] {
			seen[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}
	authors := make(map[int64]user.User)
	if len(authorIDs) > 0 {
		list, err := h.Users.ListByIDs(ctx, authorIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range list {
			authors[u.ID] = u
		}
	}

	followed := make(map[int64]bool)
	if userID != 0 {
		list, err := h.Users.ListFollowedAuthors(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, u := range list {
			followed[u.ID] = true
		}
	}

	views := make([]recipeView, 0, len(recipes))
	for _, r := range recipes {
		author := authors[r.AuthorID]
		views = append(views, recipeView{
			ID:          r.ID,
			Tags:        r.Tags,
			Ingredients: r.Ingredients,
			Author: authorView{
				ID:           author.ID,
				Username:     author.Username,
				Email:        author.Email,
				FirstName:    author.FirstName,
				LastName:     author.LastName,
				IsSubscribed: followed[r.AuthorID],
			},
			IsFavorited:      favSet[r.ID],
			IsInShoppingCart: cartSet[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		})
	}
	return views, nil
}

func (h *Handler) singleRecipeView(ctx context.Context, userID int64, r *recipe.Recipe) (recipeView, error) {
	views, err := h.recipeViews(ctx, userID, []*recipe.Recipe{r}, nil, nil)
	if err != nil {
		return recipeView{}, err
	}
	return views[0], nil
}

func (h *Handler) subscriptionView(ctx context.Context, author *user.User, limit int) (subscriptionView, error) {
	recipes, err := h.Recipes.ListSimplifiedByAuthor(ctx, author.ID, limit)
	if err != nil {
		return subscriptionView{}, err
	}
	count, err := h.Recipes.CountByAuthor(ctx, author.ID)
	if err != nil {
		return subscriptionView{}, err
	}
	return subscriptionView{
		ID:           author.ID,
		Email:        author.Email,
		Username:     author.Username,
		FirstName:    author.FirstName,
		LastName:     author.LastName,
		IsSubscribed: true,
		Recipes:      recipes,
		RecipesCount: count,
	}, nil
}

// --- Helpers ---

func (h *Handler) serverError(c *gin.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusRequestTimeout, gin.H{"errors": "Превышено время ожидания."})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"errors": "Внутренняя ошибка сервера."})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Страница не найдена."})
}

func validationError(c *gin.Context, err error) {
	var verr *recipe.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Msg})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
}

// pathID parses the :id path segment; a malformed id is treated as an
// unresolvable object.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return 0, false
	}
	return id, true
}

func boolQuery(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true" || v == "True"
}

func recipesLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func intersect(a, b []int64) []int64 {
	inB := toSet(b)
	out := []int64{}
	for _, id := range a {
		if inB[id] {
			out = append(out, id)
		}
	}
	return out
}
