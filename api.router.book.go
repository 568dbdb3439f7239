package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the html pages and the json api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Welcome))
	router.GET("/status", m.public(api.Status))

	router.GET("/books/list", m.public(api.BooksListPage))
	router.GET("/books/new", m.public(api.NewBookPage))
	router.POST("/books/new", m.public(api.CreateBookFromForm))
	router.GET("/books/edit/:id", m.public(api.EditBookPage))
	router.POST("/books/edit/:id", m.public(api.EditBookFromForm))
	router.GET("/books/delete/:id", m.public(api.DeleteBookFromLink))

	router.POST("/v1/books", m.public(api.CreateBook))
	router.GET("/v1/books", m.public(api.GetAllBooks))
	router.GET("/v1/books/:id", m.public(api.GetOneBook))
	router.PUT("/v1/books/:id", m.public(api.UpdateBook))
	router.DELETE("/v1/books/:id", m.public(api.DeleteOneBook))
	return router
}
