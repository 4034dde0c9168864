package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/internal/middleware"
	"github.com/switzea/portal/internal/portal"
	"github.com/switzea/portal/pkg/database"
)

// respond writes body plus the notices and redirect collected by the request UI.
func respond(c *gin.Context, status int, body gin.H) {
	ui := middleware.RequestUI(c)
	if body == nil {
		body = gin.H{}
	}
	body["notices"] = ui.Notices()
	if dest, ok := ui.RedirectTarget(); ok {
		body["redirect"] = dest
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) bound(c *gin.Context) (*portal.Wrapper, interaction.UI) {
	ui := middleware.RequestUI(c)
	return s.wrapper.WithUI(ui), ui
}

func (s *Server) handleListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	w, ui := s.bound(c)
	collection := c.Param("collection")

	dir, err := database.ParseDirection(c.Query("direction"))
	if err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := w.GetAllDocuments(ctx, collection, portal.ListOptions{OrderBy: c.Query("orderBy"), Direction: dir})
	if err != nil {
		// the listing degrades to empty; the caller still sees why
		portal.ShowError(ctx, ui, fmt.Sprintf("Kunne ikke hente %s", collection))
	}
	respond(c, http.StatusOK, gin.H{"documents": records})
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	ctx := c.Request.Context()
	w, ui := s.bound(c)
	collection := c.Param("collection")

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if !portal.ValidateRequired(ctx, ui, requiredFields(c.Query("required"), data)...) {
		respond(c, http.StatusUnprocessableEntity, gin.H{"error": "validation failed"})
		return
	}

	id, err := w.CreateDocument(ctx, collection, data)
	if err != nil {
		portal.ShowError(ctx, ui, "Kunne ikke gemme")
		respond(c, statusFor(err), gin.H{"error": err.Error()})
		return
	}
	portal.ShowSuccess(ctx, ui, "Gemt")
	respond(c, http.StatusCreated, gin.H{"id": id})
}

func (s *Server) handleUpdateDocument(c *gin.Context) {
	ctx := c.Request.Context()
	w, ui := s.bound(c)
	collection, id := c.Param("collection"), c.Param("id")

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if err := w.UpdateDocument(ctx, collection, id, data); err != nil {
		portal.ShowError(ctx, ui, "Kunne ikke opdatere")
		respond(c, statusFor(err), gin.H{"error": err.Error()})
		return
	}
	portal.ShowSuccess(ctx, ui, "Opdateret")
	respond(c, http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	ctx := c.Request.Context()
	w, ui := s.bound(c)
	collection, id := c.Param("collection"), c.Param("id")

	deleted, err := w.DeleteDocument(ctx, collection, id)
	if err != nil {
		portal.ShowError(ctx, ui, "Kunne ikke slette")
		respond(c, statusFor(err), gin.H{"error": err.Error(), "deleted": false})
		return
	}
	if deleted {
		portal.ShowSuccess(ctx, ui, "Slettet")
	}
	respond(c, http.StatusOK, gin.H{"id": id, "deleted": deleted})
}

// requiredFields pairs the comma-separated names with their payload values, in order.
func requiredFields(names string, data map[string]any) []portal.Field {
	var fields []portal.Field
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var value string
		switch v := data[name].(type) {
		case nil:
		case string:
			value = v
		default:
			value = fmt.Sprint(v)
		}
		fields = append(fields, portal.Field{Name: name, Value: value})
	}
	return fields
}

func (s *Server) logFailure(msg string, err error, fields ...zap.Field) {
	s.logger.Warn(msg, append(fields, zap.Error(err))...)
}
