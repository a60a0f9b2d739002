package server

import (
	"fmt"
	"io"
	"mime/multipart"

	"scrolla/internal/media"
	"scrolla/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/upload
// @Summary Upload an image
// @Description Decodes, resizes to fit 2048px and stores the image as WebP
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 201 {object} object{url=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /upload [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}
	file, err := readFormFile(header)
	if err != nil {
		return respondError(c, err)
	}

	url, err := s.uploader.Upload(c.UserContext(), currentUserID(c), file)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}

// UploadImages handles POST /api/upload/multiple
// @Summary Upload several images
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file true "Image files (max 5)"
// @Success 201 {object} object{urls=[]string}
// @Failure 400 {object} models.ErrorResponse
// @Router /upload/multiple [post]
func (s *Server) UploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, models.NewValidationError("No files uploaded"))
	}
	headers := form.File["images"]
	if len(headers) > media.MaxFilesPerRequest {
		return respondError(c, models.NewValidationError(
			fmt.Sprintf("At most %d files per upload", media.MaxFilesPerRequest)))
	}

	files := make([]media.File, 0, len(headers))
	for _, h := range headers {
		f, err := readFormFile(h)
		if err != nil {
			return respondError(c, err)
		}
		files = append(files, f)
	}

	urls, err := s.uploader.UploadMany(c.UserContext(), currentUserID(c), files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"urls": urls})
}

func readFormFile(h *multipart.FileHeader) (media.File, error) {
	src, err := h.Open()
	if err != nil {
		return media.File{}, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return media.File{}, models.NewValidationError("Unable to read uploaded file")
	}
	return media.File{
		Name:        h.Filename,
		ContentType: h.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
