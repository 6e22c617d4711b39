package controllers

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/filestore"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/upload"
)

// UploadController stores receipts and signed documents
type UploadController struct {
	store filestore.Store
	now   func() time.Time
}

func NewUploadController(store filestore.Store) *UploadController {
	return &UploadController{store: store, now: time.Now}
}

// HandleUpload handles POST /upload (multipart field "file") and returns
// the public URL of the stored file.
func (uc *UploadController) HandleUpload(c *fiber.Ctx) error {
	if !callerOf(c).Authenticated() {
		return respondError(c, apperror.Unauthorized("authentication required"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, fileError("No file uploaded"))
	}
	if err := upload.CheckSize(file.Size); err != nil {
		return respondError(c, fileError(err.Error()))
	}

	f, err := file.Open()
	if err != nil {
		return respondError(c, apperror.Internal("Failed to read upload", err))
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return respondError(c, apperror.Internal("Failed to read upload", err))
	}
	contentType, err := upload.ValidateBySniff(file.Filename, head[:n])
	if err != nil {
		return respondError(c, fileError(err.Error()))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return respondError(c, apperror.Internal("Failed to read upload", err))
	}

	name := upload.ObjectName(file.Filename, uc.now())
	url, err := uc.store.Save(c.UserContext(), name, contentType, f, file.Size)
	if err != nil {
		return respondError(c, apperror.Internal("Failed to store upload", fmt.Errorf("save %s: %w", name, err)))
	}

	log.Infof("[Upload] %s stored %s (%d bytes)", callerOf(c).UserID, name, file.Size)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}

func fileError(message string) error {
	return apperror.Validation(apperror.FieldError{Field: "file", Message: message})
}

var uploadController *UploadController

// InitializeUploadController wires the global upload controller
func InitializeUploadController(store filestore.Store) {
	uploadController = NewUploadController(store)
}

func GetUploadController() *UploadController {
	if uploadController == nil {
		panic("Upload controller not initialized. Call InitializeUploadController first.")
	}
	return uploadController
}
