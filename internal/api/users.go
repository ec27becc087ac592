package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/service"
)

// UserHandler handles the user list and the caller's profile
type UserHandler struct {
	Users          *service.UserService
	Presenter      *Presenter
	MaxUploadBytes int64
}

func NewUserHandler(users *service.UserService, presenter *Presenter, maxUploadBytes int64) *UserHandler {
	return &UserHandler{Users: users, Presenter: presenter, MaxUploadBytes: maxUploadBytes}
}

// ListUsers returns everyone the caller can write to
func (h *UserHandler) ListUsers(c *gin.Context) {
	caller, _ := callerID(c)

	users, err := h.Users.ListOthers(c.Request.Context(), caller, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.Presenter.Users(users))
}

// GetProfile returns the caller's account
func (h *UserHandler) GetProfile(c *gin.Context) {
	caller, _ := callerID(c)

	user, err := h.Users.Profile(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.Presenter.User(user))
}

// UpdateProfile replaces the avatar with the uploaded "avatar" file, or
// clears it when clear_avatar is set. A request with neither leaves the
// profile untouched.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	caller, _ := callerID(c)
	ctx := c.Request.Context()

	var input models.ProfileUpdate
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, bindingError(err))
			return
		}
	}

	upload, err := formUpload(c, "avatar", h.MaxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	var user *models.User
	switch {
	case upload != nil:
		user, err = h.Users.UpdateAvatar(ctx, caller, upload)
	case input.ClearAvatar:
		user, err = h.Users.UpdateAvatar(ctx, caller, nil)
	default:
		user, err = h.Users.Profile(ctx, caller)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"data":    h.Presenter.User(user),
	})
}

// formUpload reads the multipart file named field. It returns nil when the
// request is not multipart or carries no such file.
func formUpload(c *gin.Context, field string, maxBytes int64) (*service.Upload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil
	}

	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &service.ValidationError{Fields: map[string]string{field: "The submitted data was not a file."}}
	}

	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, &service.ValidationError{Fields: map[string]string{
			field: fmt.Sprintf("File too large, the limit is %d bytes.", maxBytes),
		}}
	}
	if fh.Size == 0 {
		return nil, &service.ValidationError{Fields: map[string]string{field: "The submitted file is empty."}}
	}

	data, err := readFile(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &service.Upload{Filename: fh.Filename, Data: data}, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
