package handlers

import (
	"errors"
	"io"

	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/gofiber/fiber/v2"
)

const maxImageSizeBytes = 10 * 1024 * 1024

var errImageTooLarge = errors.New("image too large")

// readImageUpload pulls the multipart "file" field into memory.
func readImageUpload(c *fiber.Ctx) (services.PhotoUpload, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return services.PhotoUpload{}, err
	}
	if fileHeader.Size > maxImageSizeBytes {
		return services.PhotoUpload{}, errImageTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return services.PhotoUpload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSizeBytes+1))
	if err != nil {
		return services.PhotoUpload{}, err
	}
	if len(data) > maxImageSizeBytes {
		return services.PhotoUpload{}, errImageTooLarge
	}

	return services.PhotoUpload{
		Data:        data,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

func uploadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errImageTooLarge) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Image must be 10MB or smaller"})
	}
	return badRequest(c, "Image file is required")
}
