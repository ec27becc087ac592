package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ammar1510/inbox/internal/service"
)

// respondError writes err as JSON with the status its type maps to
func respondError(c *gin.Context, err error) {
	var (
		verr     *service.ValidationError
		conflict *service.ConflictError
		authErr  *service.AuthenticationError
		storeErr *service.StorageError
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": verr.Fields})
	case errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already exists", "fields": conflict.Fields})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Reason})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)})
	case errors.As(err, &storeErr):
		log.Error("Storage failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file", "detail": err.Error()})
	default:
		log.Error("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "detail": err.Error()})
	}
}

// bindingError converts a gin binding failure into a ValidationError
func bindingError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &service.ValidationError{Fields: map[string]string{"body": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = fieldMessage(fe)
	}
	return &service.ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// jsonName maps a Go field name to the lower-case name clients send
func jsonName(field string) string {
	return strings.ToLower(field)
}
