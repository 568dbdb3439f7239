package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Messages shown on the error page.
const (
	MsgNotFound         = "Not Found"
	MsgInvalidBody      = "Invalid Body"
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgStoreUnavailable = "there was an error accessing the database"
	MsgInternalError    = "Internal Server Error"
)

// renderPage writes the page or falls back to the error page.
func (api *APIHandler) renderPage(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	if err := api.views.Render(w, http.StatusOK, name, data); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to render page", zap.String("page", name), zap.Error(err))
		api.renderError(w, r, http.StatusInternalServerError, MsgInternalError)
	}
}

// renderError writes the error page. If the error page itself cannot be
// rendered the bare message is sent as 500.
func (api *APIHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := api.views.Render(w, status, PageError, ErrorPage{Message: message}); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to render error page", zap.Error(err))
		http.Error(w, message, http.StatusInternalServerError)
	}
}

// renderStorageError maps the storage error to its page.
func (api *APIHandler) renderStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound):
		api.renderError(w, r, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, ErrStoreUnavailable):
		api.renderError(w, r, http.StatusInternalServerError, MsgStoreUnavailable)
	default:
		api.GetLoggerFromContext(r.Context()).Error("unhandled application error", zap.Error(err))
		api.renderError(w, r, http.StatusInternalServerError, MsgInternalError)
	}
}

// Welcome serves the home page.
func (api *APIHandler) Welcome(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.renderPage(w, r, PageWelcome, WelcomePage{Title: "Welcome", Body: "To The Bookstore!"})
}

// BooksListPage serves the books list.
func (api *APIHandler) BooksListPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	books, err := api.bookService.List(r.Context())
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to list books", zap.Error(err))
		api.renderStorageError(w, r, err)
		return
	}
	api.renderPage(w, r, PageBookList, BookListPage{Books: books})
}

// NewBookPage serves the book creation form.
func (api *APIHandler) NewBookPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.renderPage(w, r, PageBookNew, nil)
}

// CreateBookFromForm adds the submitted book then serves the books list.
func (api *APIHandler) CreateBookFromForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	fields, err := DecodeBookForm(r)
	if err != nil {
		logger.Error("failed to decode book form", zap.Error(err))
		api.renderError(w, r, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	books, err := api.bookService.Create(r.Context(), fields)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.renderStorageError(w, r, err)
		return
	}
	api.renderPage(w, r, PageBookList, BookListPage{Books: books})
}

// EditBookPage serves the edition form of an existing book.
func (api *APIHandler) EditBookPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	book, err := api.bookService.Get(r.Context(), id)
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to get book", zap.String("book.id", id), zap.Error(err))
		api.renderStorageError(w, r, err)
		return
	}
	api.renderPage(w, r, PageBookEdit, BookEditPage{Book: book})
}

// EditBookFromForm updates the book then serves the books list.
func (api *APIHandler) EditBookFromForm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	fields, err := DecodeBookForm(r)
	if err != nil {
		logger.Error("failed to decode book form", zap.Error(err))
		api.renderError(w, r, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	books, err := api.bookService.Update(r.Context(), id, fields)
	if err != nil {
		logger.Error("failed to update book", zap.Error(err))
		api.renderStorageError(w, r, err)
		return
	}
	api.renderPage(w, r, PageBookList, BookListPage{Books: books})
}

// DeleteBookFromLink removes the book then serves the books list.
func (api *APIHandler) DeleteBookFromLink(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	books, err := api.bookService.Delete(r.Context(), id)
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to delete book", zap.String("book.id", id), zap.Error(err))
		api.renderStorageError(w, r, err)
		return
	}
	api.renderPage(w, r, PageBookList, BookListPage{Books: books})
}

// NotFound serves the error page for unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.renderError(w, r, http.StatusNotFound, MsgNotFound)
	})
}

// MethodNotAllowed serves the error page for known routes called with another method.
func (api *APIHandler) MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.renderError(w, r, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	})
}
