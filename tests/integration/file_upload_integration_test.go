package integration

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/services"
	"github.com/kendall-kelly/xdecor-api/tests/testutil"
	"github.com/kendall-kelly/xdecor-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// FileUploadIntegrationTestSuite uploads service images to the local image store
// and reads them back through /uploads
type FileUploadIntegrationTestSuite struct {
	suite.Suite
	app       *testutil.App
	admin     *models.User
	service   *models.Service
	uploadDir string
	prevDir   string
}

// SetupSuite runs once before all tests
func (suite *FileUploadIntegrationTestSuite) SetupSuite() {
	testutil.MustSetTestEnvironment(suite.T())
	suite.prevDir = utils.UploadDir
}

// TearDownSuite runs once after all tests
func (suite *FileUploadIntegrationTestSuite) TearDownSuite() {
	utils.UploadDir = suite.prevDir
}

// SetupTest runs before each test
func (suite *FileUploadIntegrationTestSuite) SetupTest() {
	suite.uploadDir = suite.T().TempDir()
	utils.UploadDir = suite.uploadDir

	suite.app = testutil.NewApp(suite.T(), testutil.HeaderAuth())
	suite.app.Registry.Catalog = services.NewCatalogService(suite.app.DB, services.NewLocalImageService(suite.uploadDir))

	suite.admin = suite.app.SeedUser(suite.T(), "uid-admin", "admin@example.com", models.RoleAdmin)
	service, err := suite.app.Registry.Catalog.Create(suite.T().Context(), services.ServiceInput{
		ServiceName: "Garden Wedding",
		ServiceType: "Wedding",
		Price:       450,
	})
	suite.Require().NoError(err)
	suite.service = service
}

// upload posts a multipart image for the suite's service as user
func (suite *FileUploadIntegrationTestSuite) upload(user *models.User, filename string, content []byte) (*httptest.ResponseRecorder, testutil.Envelope) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		suite.Require().NoError(err)
		_, err = part.Write(content)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/services/"+suite.service.ID+"/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for i, h := 0, testutil.As(user); i+1 < len(h); i += 2 {
		req.Header.Set(h[i], h[i+1])
	}

	w := httptest.NewRecorder()
	suite.app.Router.ServeHTTP(w, req)
	return w, testutil.DecodeEnvelope(suite.T(), w)
}

// TestUploadAndServePNG tests the full round trip of a PNG image
func (suite *FileUploadIntegrationTestSuite) TestUploadAndServePNG() {
	content := []byte("fake PNG file content")
	w, env := suite.upload(suite.admin, "garden.png", content)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated models.Service
	env.Decode(suite.T(), &updated)
	suite.Require().NotNil(updated.ImageKey)
	assert.Equal(suite.T(), "/api/v1/uploads/"+*updated.ImageKey, updated.Image)
	assert.FileExists(suite.T(), filepath.Join(suite.uploadDir, filepath.FromSlash(*updated.ImageKey)))

	get := httptest.NewRecorder()
	suite.app.Router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, updated.Image, nil))
	assert.Equal(suite.T(), http.StatusOK, get.Code)
	assert.Equal(suite.T(), "image/png", get.Header().Get("Content-Type"))
	assert.Equal(suite.T(), content, get.Body.Bytes())
}

// TestReplaceImageRemovesOldFile tests that a new upload deletes the previous file
func (suite *FileUploadIntegrationTestSuite) TestReplaceImageRemovesOldFile() {
	w, env := suite.upload(suite.admin, "first.jpg", []byte("first"))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var first models.Service
	env.Decode(suite.T(), &first)
	suite.Require().NotNil(first.ImageKey)

	w, _ = suite.upload(suite.admin, "second.webp", []byte("second"))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	_, err := os.Stat(filepath.Join(suite.uploadDir, filepath.FromSlash(*first.ImageKey)))
	assert.True(suite.T(), os.IsNotExist(err))
}

// TestUploadRejectsInvalidFiles tests format and permission failures
func (suite *FileUploadIntegrationTestSuite) TestUploadRejectsInvalidFiles() {
	customer := suite.app.SeedUser(suite.T(), "uid-customer", "customer@example.com", models.RoleUser)

	testCases := []struct {
		name       string
		user       *models.User
		filename   string
		wantStatus int
		wantCode   string
	}{
		{"text file", suite.admin, "notes.txt", http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"gif file", suite.admin, "anim.gif", http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"no file", suite.admin, "", http.StatusBadRequest, "MISSING_IMAGE"},
		{"not an admin", customer, "garden.png", http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			w, env := suite.upload(tc.user, tc.filename, []byte("content"))
			assert.Equal(suite.T(), tc.wantStatus, w.Code)
			assert.Equal(suite.T(), tc.wantCode, env.ErrorCode())
		})
	}

	entries, err := os.ReadDir(suite.uploadDir)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), entries, "rejected uploads leave nothing on disk")
}

// TestServeMissingImage tests the 404 for unknown keys
func (suite *FileUploadIntegrationTestSuite) TestServeMissingImage() {
	w, env := testutil.Do(suite.T(), suite.app.Router, http.MethodGet, "/api/v1/uploads/services/missing.png", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "FILE_NOT_FOUND", env.ErrorCode())
}

func TestFileUploadIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(FileUploadIntegrationTestSuite))
}
