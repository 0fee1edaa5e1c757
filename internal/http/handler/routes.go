package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vaultapi/internal/http/middleware"
	"vaultapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// parse and validate the request shape; every decision about who may touch
// which file stays in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, vault service.VaultService, authSecret string) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	auth := middleware.Auth(authSecret)

	files := app.Group("/files", auth)
	files.Get("/", ListFiles(vault))
	files.Post("/", UploadFile(vault))
	files.Get("/:id", GetFile(vault))
	files.Patch("/:id", RenameFile(vault))
	files.Delete("/:id", DeleteFile(vault))
	files.Get("/:id/download", DownloadFile(vault))
	files.Get("/:id/view", ViewFile(vault))
	files.Get("/:id/versions", ListFileVersions(vault))
	files.Post("/:id/versions", UploadFileVersion(vault))
	files.Post("/:id/versions/:number/restore", RestoreFileVersion(vault))

	app.Get("/activity", auth, ListActivity(vault))
}

// HealthCheck reports whether the database is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial process-up check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListFiles returns the files visible to the principal.
func ListFiles(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageParams(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid limit or offset")
		}
		res, err := vault.List(c.UserContext(), middleware.PrincipalFromCtx(c), service.ListFilters{
			Ordering:      c.Query("ordering"),
			OwnerUsername: c.Query("owner_username"),
			AllFiles:      c.QueryBool("all_files"),
			Limit:         limit,
			Offset:        offset,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadFile stores a multipart upload (field name: file). ZIP uploads fan
// out into one record per archive member.
func UploadFile(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		principal := middleware.PrincipalFromCtx(c)
		if service.IsArchiveName(fh.Filename) {
			res, err := vault.IngestArchive(c.UserContext(), principal, fh.Filename, f, fh.Size)
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(res)
		}

		rec, err := vault.Upload(c.UserContext(), principal, fh.Filename, f, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// GetFile returns one file record.
func GetFile(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := vault.Get(c.UserContext(), middleware.PrincipalFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// RenameFile changes a file's display name.
func RenameFile(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body struct {
			NewName string `json:"new_name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		rec, err := vault.Rename(c.UserContext(), middleware.PrincipalFromCtx(c), id, body.NewName)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// DeleteFile removes a file and its history.
func DeleteFile(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := vault.Delete(c.UserContext(), middleware.PrincipalFromCtx(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadFile mints a signed URL with attachment disposition.
func DownloadFile(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := vault.DownloadURL(c.UserContext(), middleware.PrincipalFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(link)
	}
}

// ViewFile mints a signed URL with inline disposition.
func ViewFile(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := vault.ViewURL(c.UserContext(), middleware.PrincipalFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(link)
	}
}

// ListFileVersions returns a file's version history, newest first.
func ListFileVersions(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := vault.ListVersions(c.UserContext(), middleware.PrincipalFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadFileVersion stores new content as the next version of a file.
func UploadFileVersion(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		rec, err := vault.UploadVersion(c.UserContext(), middleware.PrincipalFromCtx(c), id, f, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// RestoreFileVersion appends an older version's content as the new latest.
func RestoreFileVersion(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := fileID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		number, err := strconv.Atoi(c.Params("number"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VERSION", "invalid version number")
		}
		snap, err := vault.RestoreVersion(c.UserContext(), middleware.PrincipalFromCtx(c), id, number)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// ListActivity returns audit log entries; the service enforces the staff
// gate.
func ListActivity(vault service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pageParams(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid limit or offset")
		}
		res, err := vault.ListActivity(c.UserContext(), middleware.PrincipalFromCtx(c), service.ActivityFilters{
			Username: c.Query("username"),
			Ordering: c.Query("ordering"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// fileID validates the :id path parameter.
func fileID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", err
	}
	return id, nil
}

// pageParams parses limit and offset query parameters.
func pageParams(c *fiber.Ctx) (int, int, error) {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		return 0, 0, err
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
