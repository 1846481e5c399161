package server

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmigration/backend/internal/intake"
)

// Submission limits, matching what the frontend enforces client-side.
const (
	maxFiles    = 20
	maxFileSize = 50 << 20 // 50 MB per file
)

// handleSubmit accepts a multipart form submission. Acceptance is
// independent of the relay outcome: once the form parses and passes the
// size limits, the response is 200 regardless of SharePoint state.
func (s *Server) handleSubmit(c *gin.Context) {
	formID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		s.logger.Error("multipart parse failed",
			slog.String("form_id", formID),
			slog.String("error", err.Error()),
			slog.String("request_id", c.GetString("request_id")),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Error interno del servidor",
		})

		return
	}

	files, err := collectFiles(form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})

		return
	}

	fields := make(map[string]string, len(form.Value))
	for name, values := range form.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	s.intake.Submit(c.Request.Context(), formID, fields, files)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Formulario recibido correctamente",
	})
}

// collectFiles reads the multipart file map into attachment values,
// enforcing the count and per-file size limits, and flattens the
// per-field grouping into one deterministic list.
func collectFiles(form *multipart.Form) ([]intake.File, error) {
	total := 0
	for _, headers := range form.File {
		total += len(headers)
	}

	if total > maxFiles {
		return nil, fmt.Errorf("demasiados archivos adjuntos (máximo %d)", maxFiles)
	}

	grouped := make(map[string][]intake.File, len(form.File))

	for name, headers := range form.File {
		for _, header := range headers {
			if header.Size > maxFileSize {
				return nil, fmt.Errorf("el archivo %s supera el límite de 50 MB", header.Filename)
			}

			content, err := readFile(header)
			if err != nil {
				return nil, fmt.Errorf("no se pudo leer el archivo %s", header.Filename)
			}

			grouped[name] = append(grouped[name], intake.File{
				Name:        header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
				Content:     content,
			})
		}
	}

	return intake.Flatten(nil, grouped), nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
