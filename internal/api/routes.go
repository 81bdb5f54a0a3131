package api

import (
	"github.com/gin-gonic/gin"

	"foodgram/internal/auth"
)

// RegisterRoutes mounts the API under /api. Read endpoints accept anonymous
// requests (per-user annotations stay false); everything that mutates or is
// per-user requires a bearer token.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")

	public := api.Group("", auth.OptionalAuth(h.TokenSecret))
	public.GET("/ingredients/", h.ListIngredients)
	public.GET("/ingredients/:id/", h.GetIngredient)
	public.GET("/tags/", h.ListTags)
	public.GET("/tags/:id/", h.GetTag)
	public.GET("/recipes/", h.ListRecipes)
	public.GET("/recipes/:id/", h.GetRecipe)

	api.POST("/users/", h.Register)
	api.POST("/auth/token/login/", h.Login)

	private := api.Group("", auth.RequireAuth(h.TokenSecret))
	private.GET("/users/me/", h.Me)
	private.GET("/users/subscriptions/", h.ListSubscriptions)
	private.POST("/users/:id/subscribe/", h.Subscribe)
	private.DELETE("/users/:id/subscribe/", h.Unsubscribe)

	private.POST("/recipes/", h.CreateRecipe)
	private.PATCH("/recipes/:id/", h.UpdateRecipe)
	private.DELETE("/recipes/:id/", h.DeleteRecipe)

	private.POST("/recipes/:id/shopping_cart/", h.AddToCart)
	private.DELETE("/recipes/:id/shopping_cart/", h.RemoveFromCart)
	private.POST("/recipes/:id/favorite/", h.AddToFavorites)
	private.DELETE("/recipes/:id/favorite/", h.RemoveFromFavorites)
	private.GET("/recipes/download_shopping_cart/", h.DownloadShoppingCart)
}
