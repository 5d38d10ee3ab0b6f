package handlers

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// page serves a static HTML view from ViewsDir.
func (h *Handler) page(name string) gin.HandlerFunc {
	file := filepath.Join(h.opts.ViewsDir, name)
	return func(c *gin.Context) {
		c.File(file)
	}
}
