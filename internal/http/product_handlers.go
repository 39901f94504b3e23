package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shop-api/internal/domain"
	"shop-api/internal/service"
)

type createProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"gte=0"`
	Stock       int    `json:"stock" binding:"gte=0"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price" binding:"omitempty,gte=0"`
	Stock       *int    `json:"stock" binding:"omitempty,gte=0"`
}

func (h *Handler) listProducts(c *gin.Context) {
	filter := domain.ProductFilter{Query: c.Query("q")}
	var problems []string
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			problems = append(problems, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			problems = append(problems, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	if len(problems) > 0 {
		abortWithError(c, http.StatusBadRequest, problems)
		return
	}

	products, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]ProductResponse, len(products))
	for i := range products {
		resp[i] = h.productResponse(c, &products[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.productResponse(c, product))
}

func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.Create(c.Request.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, productToResponse(product, ""))
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.productResponse(c, product))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadProductImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, []string{"file should not be empty"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer file.Close()

	product, err := h.products.AttachImage(c.Request.Context(), id, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.productResponse(c, product))
}

// productResponse attaches a presigned image URL when one can be produced.
// A presign failure only drops the URL.
func (h *Handler) productResponse(c *gin.Context, product *domain.Product) ProductResponse {
	url, err := h.products.ImageURL(c.Request.Context(), product)
	if err != nil {
		h.logger.WithError(err).WithField("product_id", product.ID).Warn("presign product image")
		url = ""
	}
	return productToResponse(product, url)
}
