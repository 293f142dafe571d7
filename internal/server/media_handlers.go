package server

import (
	"mime/multipart"
	"strconv"

	"talenthub/internal/models"
	"talenthub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ImageResponse is an uploaded image with its public URL.
type ImageResponse struct {
	models.Image
	URL string `json:"url"`
}

// VideoResponse is an uploaded video with its public URL.
type VideoResponse struct {
	models.Video
	URL string `json:"url"`
}

// openUpload reads the multipart "file" field plus the optional metadata form
// fields. On failure it writes a 400 and returns errResponseWritten.
func openUpload(c *fiber.Ctx) (service.UploadInput, multipart.File, error) {
	file, err := c.FormFile("file")
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
		return service.UploadInput{}, nil, errResponseWritten
	}
	src, err := file.Open()
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
		return service.UploadInput{}, nil, errResponseWritten
	}

	in := service.UploadInput{
		UploaderID:  currentUser(c).ID,
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Size:        file.Size,
		Content:     src,
		Format:      c.FormValue("format"),
		Resolution:  c.FormValue("resolution"),
	}
	in.Width, _ = strconv.Atoi(c.FormValue("width"))
	in.Height, _ = strconv.Atoi(c.FormValue("height"))
	in.Bitrate, _ = strconv.Atoi(c.FormValue("bitrate"))
	if raw := c.FormValue("duration"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			_ = src.Close()
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("duration must be a number"))
			return service.UploadInput{}, nil, errResponseWritten
		}
		in.Duration = d
	}
	return in, src, nil
}

// UploadImage handles POST /api/images/upload
// @Summary Upload an image
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file (max 5MB)"
// @Param width formData int false "Width when it cannot be decoded"
// @Param height formData int false "Height when it cannot be decoded"
// @Param format formData string false "Format when it cannot be decoded"
// @Success 201 {object} ImageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /images/upload [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	in, src, err := openUpload(c)
	if err != nil {
		return nil
	}
	defer func() { _ = src.Close() }()

	img, err := s.mediaService.UploadImage(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ImageResponse{Image: *img, URL: service.PublicURL(img.Path)})
}

// UploadVideo handles POST /api/videos/upload
// @Summary Upload a video
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Video file (max 100MB)"
// @Param duration formData number false "Duration in seconds"
// @Param resolution formData string false "Resolution, e.g. 1920x1080"
// @Param format formData string false "Container format"
// @Param bitrate formData int false "Bitrate in kbps"
// @Success 201 {object} VideoResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /videos/upload [post]
func (s *Server) UploadVideo(c *fiber.Ctx) error {
	in, src, err := openUpload(c)
	if err != nil {
		return nil
	}
	defer func() { _ = src.Close() }()

	video, err := s.mediaService.UploadVideo(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(VideoResponse{Video: *video, URL: service.PublicURL(video.Path)})
}

// GetMyImages handles GET /api/images
// @Summary List the caller's images
// @Tags media
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} ImageResponse
// @Router /images [get]
func (s *Server) GetMyImages(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	images, err := s.mediaService.ListImages(c.UserContext(), currentUser(c).ID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, ImageResponse{Image: img, URL: service.PublicURL(img.Path)})
	}
	return c.JSON(out)
}

// DeleteImage handles DELETE /api/images/:id
// @Summary Delete one of the caller's images
// @Tags media
// @Produce json
// @Security BearerAuth
// @Param id path int true "Image ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /images/{id} [delete]
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.mediaService.DeleteImage(c.UserContext(), id, currentUser(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Image deleted successfully"})
}

// DeleteVideo handles DELETE /api/videos/:id
// @Summary Delete one of the caller's videos
// @Tags media
// @Produce json
// @Security BearerAuth
// @Param id path int true "Video ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /videos/{id} [delete]
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.mediaService.DeleteVideo(c.UserContext(), id, currentUser(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Video deleted successfully"})
}
