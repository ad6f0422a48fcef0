package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
)

// BoardHandler serves the search and favorites views.
type BoardHandler struct {
	board     *app.Board
	catalog   *app.Catalog
	favorites *app.FavoritesStore
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(board *app.Board, catalog *app.Catalog, favorites *app.FavoritesStore) *BoardHandler {
	return &BoardHandler{
		board:     board,
		catalog:   catalog,
		favorites: favorites,
	}
}

// Status handles GET /api/v1/quotes/status
// Reports the cache load state and sizes. Never fails.
//
// @Summary Quote cache status
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /api/v1/quotes/status [get]
func (h *BoardHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.StatusResponse{
		State:     h.catalog.State().String(),
		Quotes:    h.catalog.Len(),
		Favorites: h.favorites.Len(),
	})
}

// Search handles GET /api/v1/quotes/search?q=term
// Replaces the search view with the quotes matching term.
//
// @Summary Search quotes
// @Description Case-insensitive substring match on text or author. An empty term matches everything.
// @Tags quotes
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} dto.ViewsResponse
// @Failure 503 {object} dto.ErrorResponse "NOT_READY while quotes are loading or after a failed load"
// @Router /api/v1/quotes/search [get]
func (h *BoardHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	views, err := h.board.Search(c.Request.Context(), req.Q)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewViewsResponse(views))
}

// Views handles GET /api/v1/views
//
// @Summary Current views
// @Tags views
// @Produce json
// @Success 200 {object} dto.ViewsResponse
// @Router /api/v1/views [get]
func (h *BoardHandler) Views(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewViewsResponse(h.board.Snapshot()))
}

// Favorites handles GET /api/v1/favorites
//
// @Summary Favorites view
// @Tags favorites
// @Produce json
// @Success 200 {object} dto.FavoritesViewResponse
// @Router /api/v1/favorites [get]
func (h *BoardHandler) Favorites(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewFavoritesViewResponse(h.board.Snapshot().Favorites))
}

// Toggle handles POST /api/v1/favorites/toggle
// Marks an unmarked search card or unmarks a marked one.
//
// @Summary Toggle a search result
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Quote"
// @Success 200 {object} dto.ViewsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/favorites/toggle [post]
func (h *BoardHandler) Toggle(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	views, err := h.board.Toggle(c.Request.Context(), req.Quote())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewViewsResponse(views))
}

// Remove handles POST /api/v1/favorites/remove
// Removes a quote from favorites and unmarks its search card.
//
// @Summary Remove a favorite
// @Tags favorites
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Quote"
// @Success 200 {object} dto.ViewsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/favorites/remove [post]
func (h *BoardHandler) Remove(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	views, err := h.board.Remove(c.Request.Context(), req.Quote())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewViewsResponse(views))
}

// Clear handles DELETE /api/v1/favorites
//
// @Summary Clear all favorites
// @Tags favorites
// @Produce json
// @Success 200 {object} dto.ViewsResponse
// @Router /api/v1/favorites [delete]
func (h *BoardHandler) Clear(c *gin.Context) {
	views, err := h.board.ClearAll(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewViewsResponse(views))
}

// RegisterBoardRoutes registers board routes on the given router group.
func (h *BoardHandler) RegisterBoardRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("/status", h.Status)
	quotes.GET("/search", h.Search)

	rg.GET("/views", h.Views)

	favorites := rg.Group("/favorites")
	favorites.GET("", h.Favorites)
	favorites.DELETE("", h.Clear)
	favorites.POST("/toggle", h.Toggle)
	favorites.POST("/remove", h.Remove)
}
