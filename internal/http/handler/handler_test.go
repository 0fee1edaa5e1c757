package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaultapi/internal/model"
	"vaultapi/internal/service"
	serviceMocks "vaultapi/internal/service/mocks"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListFiles(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Get("/files", ListFiles(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.FileListResult{
			Items: []model.FileRecord{{ID: uuid.New().String(), DisplayName: "report.pdf"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, mock.Anything, service.ListFilters{
			Ordering: "-uploaded_at",
			AllFiles: true,
			Limit:    10,
			Offset:   0,
		}).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/files?limit=10&ordering=-uploaded_at&all_files=true", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.FileListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/files?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_PAGE", body.Error.Code)
	})

	t.Run("bad ordering is a validation error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrValidation).Once()

		req := httptest.NewRequest(http.MethodGet, "/files?ordering=bogus", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Post("/files", UploadFile(mockSvc))

	multipartBody := func(filename, content string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", filename)
		part.Write([]byte(content))
		writer.Close()
		return body, writer.FormDataContentType()
	}

	t.Run("plain file goes through Upload", func(t *testing.T) {
		body, ct := multipartBody("test.txt", "hello world")

		expected := &model.FileRecord{ID: uuid.New().String(), DisplayName: "test.txt"}
		mockSvc.On("Upload", mock.Anything, mock.Anything, "test.txt", mock.Anything, mock.Anything).
			Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.FileRecord
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
		mockSvc.AssertNotCalled(t, "IngestArchive", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zip upload goes through IngestArchive", func(t *testing.T) {
		body, ct := multipartBody("bundle.zip", "PK fake zip bytes")

		expected := &service.ArchiveResult{ArchiveName: "bundle.zip", ExtractedCount: 2}
		mockSvc.On("IngestArchive", mock.Anything, mock.Anything, "bundle.zip", mock.Anything, mock.Anything).
			Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result service.ArchiveResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 2, result.ExtractedCount)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("conflicting name", func(t *testing.T) {
		body, ct := multipartBody("test.txt", "hello")

		mockSvc.On("Upload", mock.Anything, mock.Anything, "test.txt", mock.Anything, mock.Anything).
			Return(nil, service.ErrConflict).Once()

		req := httptest.NewRequest(http.MethodPost, "/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CONFLICT", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Get("/files/:id", GetFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.FileRecord{ID: id, DisplayName: "test.txt"}
		mockSvc.On("Get", mock.Anything, mock.Anything, id).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/files/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.FileRecord
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/files/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("foreign file", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, mock.Anything, id).Return(nil, service.ErrNotAuthorized).Once()

		req := httptest.NewRequest(http.MethodGet, "/files/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_AUTHORIZED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/files/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})
}

func TestRenameFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Patch("/files/:id", RenameFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &model.FileRecord{ID: id, DisplayName: "renamed.txt"}
		mockSvc.On("Rename", mock.Anything, mock.Anything, id, "renamed.txt").Return(expected, nil).Once()

		payload, _ := json.Marshal(map[string]string{"new_name": "renamed.txt"})
		req := httptest.NewRequest(http.MethodPatch, "/files/"+id, bytes.NewReader(payload))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.FileRecord
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "renamed.txt", result.DisplayName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("conflict", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Rename", mock.Anything, mock.Anything, id, "taken.txt").
			Return(nil, service.ErrConflict).Once()

		payload, _ := json.Marshal(map[string]string{"new_name": "taken.txt"})
		req := httptest.NewRequest(http.MethodPatch, "/files/"+id, bytes.NewReader(payload))
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Delete("/files/:id", DeleteFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/files/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("blob store failure", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, mock.Anything, id).Return(service.ErrStore).Once()

		req := httptest.NewRequest(http.MethodDelete, "/files/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "STORE_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestSignedURLHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Get("/files/:id/download", DownloadFile(mockSvc))
	app.Get("/files/:id/view", ViewFile(mockSvc))

	id := uuid.New().String()
	link := &service.SignedLink{URL: "https://blob.example/signed", ExpiresAt: time.Now().UTC().Add(15 * time.Minute)}

	t.Run("download", func(t *testing.T) {
		mockSvc.On("DownloadURL", mock.Anything, mock.Anything, id).Return(link, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/files/"+id+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.SignedLink
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, link.URL, result.URL)
		mockSvc.AssertExpectations(t)
	})

	t.Run("view", func(t *testing.T) {
		mockSvc.On("ViewURL", mock.Anything, mock.Anything, id).Return(link, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/files/"+id+"/view", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestVersionHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Get("/files/:id/versions", ListFileVersions(mockSvc))
	app.Post("/files/:id/versions/:number/restore", RestoreFileVersion(mockSvc))

	id := uuid.New().String()

	t.Run("list versions", func(t *testing.T) {
		res := &service.VersionListResult{
			Items:         []model.VersionSnapshot{{VersionNumber: 2}, {VersionNumber: 1}},
			LatestVersion: 2,
		}
		mockSvc.On("ListVersions", mock.Anything, mock.Anything, id).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/files/"+id+"/versions", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result service.VersionListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 2, result.LatestVersion)
		mockSvc.AssertExpectations(t)
	})

	t.Run("restore", func(t *testing.T) {
		from := 1
		snap := &model.VersionSnapshot{VersionNumber: 3, RestoredFromVersion: &from}
		mockSvc.On("RestoreVersion", mock.Anything, mock.Anything, id, 1).Return(snap, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/files/"+id+"/versions/1/restore", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.VersionSnapshot
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 3, result.VersionNumber)
		mockSvc.AssertExpectations(t)
	})

	t.Run("restore with bad version number", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files/"+id+"/versions/abc/restore", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_VERSION", res.Error.Code)
	})
}

func TestListActivityHandler(t *testing.T) {
	mockSvc := new(serviceMocks.MockVaultService)
	app := fiber.New()
	app.Get("/activity", ListActivity(mockSvc))

	t.Run("success", func(t *testing.T) {
		res := &service.ActivityListResult{
			Items: []model.ActivityLogEntry{{Username: "alice", Action: model.ActionUpload}},
			Total: 1,
		}
		mockSvc.On("ListActivity", mock.Anything, mock.Anything, service.ActivityFilters{
			Username: "alice",
			Limit:    50,
			Offset:   0,
		}).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/activity?username=alice", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("non-staff caller", func(t *testing.T) {
		mockSvc.On("ListActivity", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrNotAuthorized).Once()

		req := httptest.NewRequest(http.MethodGet, "/activity", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockVaultService)
	RegisterRoutes(app, nil, mockSvc, "test-secret")

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("files without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/files", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHORIZED", res.Error.Code)
	})

	t.Run("files with valid token carries the principal", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":      "user-1",
			"username": "alice",
			"is_staff": false,
			"exp":      time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(p model.Principal) bool {
			return p.ID == "user-1" && p.Username == "alice" && p.IsAuthenticated && !p.IsStaff
		}), mock.Anything).Return(&service.FileListResult{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/files", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}
