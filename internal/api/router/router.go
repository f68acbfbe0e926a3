package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/watermarkd/internal/api/handlers/export"
	"github.com/aliskhannn/watermarkd/internal/api/handlers/template"
	"github.com/aliskhannn/watermarkd/internal/middleware"
)

func Setup(e *export.Handler, t *template.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/export", e.Submit)      // enqueue an export batch
	api.GET("/export/:id", e.Status)   // batch progress and result
	api.POST("/preview", e.Preview)    // render one watermarked preview

	api.GET("/templates", t.List)             // list template names
	api.GET("/templates/:name", t.Get)        // fetch a settings bag
	api.PUT("/templates/:name", t.Put)        // create or replace a settings bag
	api.DELETE("/templates/:name", t.Delete)  // remove a template

	return r
}
