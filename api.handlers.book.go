package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// StorageErrorStatus maps a storage error to the http status to answer with.
func StorageErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrBookNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the json error and logs when it could not be sent.
func (api *APIHandler) writeError(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	errResp := NewAPIError(requestID, status, message, data)
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send error response", zap.Error(err))
	}
}

// writeBooks sends the books list with its size.
func (api *APIHandler) writeBooks(w http.ResponseWriter, r *http.Request, status int, message string, books []Book) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	total := len(books)
	resp := GenericResponse(requestID, status, message, &total, books)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.Error(err))
	}
}

// GetAllBooks godoc
// @Summary      List books
// @Description  Returns all books in insertion order.
// @Tags         books
// @Produce      json
// @Success      200  {object}  APIResponse{data=[]Book}
// @Failure      500  {object}  APIError
// @Router       /v1/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.List(r.Context())
	if err != nil {
		logger.Error("failed to get all books", zap.Error(err))
		api.writeError(w, r, StorageErrorStatus(err), "failed to get all books", EmptyData)
		return
	}
	logger.Info("success to get all books", zap.Int("books.total", len(books)))
	api.writeBooks(w, r, http.StatusOK, "All books fetched successfully.", books)
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Adds a book and returns the whole list. The new book is the last one.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book  body      BookRequest  true  "book fields"
// @Success      201   {object}  APIResponse{data=[]Book}
// @Failure      400   {object}  APIError
// @Failure      500   {object}  APIError
// @Router       /v1/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	fields, err := DecodeBookRequestBody(r)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.writeError(w, r, http.StatusBadRequest, "failed to create the book", err.Error())
		return
	}

	books, err := api.bookService.Create(r.Context(), fields)
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.writeError(w, r, StorageErrorStatus(err), "failed to create the book", fields)
		return
	}
	if len(books) > 0 {
		logger.Info("success to create book", zap.String("book.id", books[len(books)-1].ID))
	}
	api.writeBooks(w, r, http.StatusCreated, "Book created successfully.", books)
}

// GetOneBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "book id"
// @Success      200  {object}  APIResponse{data=Book}
// @Failure      400  {object}  APIError
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /v1/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	if ok := api.idsHandler.IsValid(id, BookIDPrefix); !ok {
		logger.Error("book id provided is not valid")
		api.writeError(w, r, http.StatusBadRequest, "book id provided is not valid", EmptyData)
		return
	}
	book, err := api.bookService.Get(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Error("book does not exist")
		api.writeError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to get book", zap.Error(err))
		api.writeError(w, r, http.StatusInternalServerError, "failed to get the book", EmptyData)
		return
	}
	logger.Info("success to get book")
	resp := GenericResponse(requestID, http.StatusOK, "Book fetched successfully.", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Replaces name, author, language and pages. Id and addedAt never change.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "book id"
// @Param        book  body      BookRequest  true  "book fields"
// @Success      200   {object}  APIResponse{data=[]Book}
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Failure      500   {object}  APIError
// @Router       /v1/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	if ok := api.idsHandler.IsValid(id, BookIDPrefix); !ok {
		logger.Error("book id provided is not valid")
		api.writeError(w, r, http.StatusBadRequest, "book id provided is not valid", EmptyData)
		return
	}

	fields, err := DecodeBookRequestBody(r)
	if err != nil {
		logger.Error("failed to update book", zap.Error(err))
		api.writeError(w, r, http.StatusBadRequest, "failed to update the book", err.Error())
		return
	}

	books, err := api.bookService.Update(r.Context(), id, fields)
	if errors.Is(err, ErrBookNotFound) {
		logger.Error("book does not exist")
		api.writeError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to update book", zap.Error(err))
		api.writeError(w, r, http.StatusInternalServerError, "failed to update the book", fields)
		return
	}
	logger.Info("success to update book")
	api.writeBooks(w, r, http.StatusOK, "Book updated successfully.", books)
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "book id"
// @Success      200  {object}  APIResponse{data=[]Book}
// @Failure      400  {object}  APIError
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /v1/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	if ok := api.idsHandler.IsValid(id, BookIDPrefix); !ok {
		logger.Error("book id provided is not valid")
		api.writeError(w, r, http.StatusBadRequest, "book id provided is not valid", EmptyData)
		return
	}

	books, err := api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Error("book does not exist")
		api.writeError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to delete book", zap.Error(err))
		api.writeError(w, r, http.StatusInternalServerError, "failed to delete the book", EmptyData)
		return
	}
	logger.Info("success to delete book")
	api.writeBooks(w, r, http.StatusOK, "Book deleted successfully.", books)
}
