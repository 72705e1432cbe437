package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scibind/internal/docmodel"
	"scibind/internal/docmodel/export"
	"scibind/internal/errors"
	"scibind/internal/middleware"
	"scibind/internal/utils"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userID uint64, title string) (*docmodel.Document, error) {
	args := m.Called(ctx, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Document), args.Error(1)
}

func (m *MockService) List(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaginatedDocuments), args.Error(1)
}

func (m *MockService) Search(ctx context.Context, userID uint64, query string) ([]docmodel.DocumentMatches, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docmodel.DocumentMatches), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id string, userID uint64) (*docmodel.Document, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Document), args.Error(1)
}

func (m *MockService) Rename(ctx context.Context, id string, userID uint64, title string) (*docmodel.Document, error) {
	args := m.Called(ctx, id, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Document), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id string, userID uint64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockService) AddSection(ctx context.Context, id string, userID uint64, title string) (*docmodel.Section, error) {
	args := m.Called(ctx, id, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Section), args.Error(1)
}

func (m *MockService) RemoveSection(ctx context.Context, id string, userID uint64, index int) (*docmodel.Document, error) {
	args := m.Called(ctx, id, userID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Document), args.Error(1)
}

func (m *MockService) AddElement(ctx context.Context, id string, userID uint64, sectionID string, req ElementRequest) (docmodel.Element, error) {
	args := m.Called(ctx, id, userID, sectionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docmodel.Element), args.Error(1)
}

func (m *MockService) ReplaceElement(ctx context.Context, id string, userID uint64, sectionID string, index int, raw json.RawMessage) (docmodel.Element, error) {
	args := m.Called(ctx, id, userID, sectionID, index, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docmodel.Element), args.Error(1)
}

func (m *MockService) RemoveElement(ctx context.Context, id string, userID uint64, sectionID string, index int) error {
	return m.Called(ctx, id, userID, sectionID, index).Error(0)
}

func (m *MockService) ModifyStyling(ctx context.Context, id string, userID uint64, sectionID string, index int, patch docmodel.StylePatch) (docmodel.Element, error) {
	args := m.Called(ctx, id, userID, sectionID, index, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docmodel.Element), args.Error(1)
}

func (m *MockService) SetCell(ctx context.Context, id string, userID uint64, sectionID string, index int, req CellRequest) (docmodel.Element, error) {
	args := m.Called(ctx, id, userID, sectionID, index, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docmodel.Element), args.Error(1)
}

func (m *MockService) AddComment(ctx context.Context, id string, userID uint64, req CommentRequest) (*docmodel.Comment, error) {
	args := m.Called(ctx, id, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Comment), args.Error(1)
}

func (m *MockService) AddCollaborator(ctx context.Context, id string, userID uint64, target uint64) ([]string, error) {
	args := m.Called(ctx, id, userID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockService) RemoveCollaborator(ctx context.Context, id string, userID uint64, target uint64) ([]string, error) {
	args := m.Called(ctx, id, userID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockService) AddTag(ctx context.Context, id string, userID uint64, tag string) ([]string, error) {
	args := m.Called(ctx, id, userID, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockService) RemoveTag(ctx context.Context, id string, userID uint64, tag string) ([]string, error) {
	args := m.Called(ctx, id, userID, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockService) SearchDocument(ctx context.Context, id string, userID uint64, query string) ([]docmodel.SearchResult, error) {
	args := m.Called(ctx, id, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docmodel.SearchResult), args.Error(1)
}

func (m *MockService) SaveVersion(ctx context.Context, id string, userID uint64) (int, error) {
	args := m.Called(ctx, id, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockService) CountVersions(ctx context.Context, id string, userID uint64) (int, error) {
	args := m.Called(ctx, id, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockService) Revert(ctx context.Context, id string, userID uint64, index int) (*docmodel.Document, error) {
	args := m.Called(ctx, id, userID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docmodel.Document), args.Error(1)
}

func (m *MockService) Export(ctx context.Context, id string, userID uint64, format string) ([]byte, export.Exporter, error) {
	args := m.Called(ctx, id, userID, format)
	if args.Get(1) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(export.Exporter), args.Error(2)
}

func (m *MockService) Columns(ctx context.Context, id string, userID uint64, n int) ([][]*docmodel.Section, error) {
	args := m.Called(ctx, id, userID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]*docmodel.Section), args.Error(1)
}

func (m *MockService) CanCollaborate(ctx context.Context, documentID string, userID uint64) error {
	return m.Called(ctx, documentID, userID).Error(0)
}

func (m *MockService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	authed := router.Group("/", func(c *gin.Context) {
		c.Set("user_id", uint64(1))
		c.Next()
	})
	handler.RegisterRoutes(authed)
	return router
}

func doRequest(router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestCreateDocument_Success tests successful document creation
func TestCreateDocument_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	doc := docmodel.NewDocument("Anatomy")
	mockService.On("Create", mock.Anything, uint64(1), "Anatomy").Return(doc, nil)

	w := doRequest(router, http.MethodPost, "/documents", CreateOrRenameRequest{Title: "Anatomy"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, doc.ID(), response["id"])
	assert.Equal(t, float64(1), response["version"])
	mockService.AssertExpectations(t)
}

// TestCreateDocument_InvalidInput tests document creation with invalid input
func TestCreateDocument_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := doRequest(router, http.MethodPost, "/documents", struct{}{})

	// 422 for validation errors (missing title)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// TestShowUserDocuments_WithPagination tests user documents with pagination
func TestShowUserDocuments_WithPagination(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	result := &PaginatedDocuments{
		Data: []docmodel.Summary{{ID: "a", Title: "Doc 1", Tags: []string{}}},
		Meta: utils.PageMeta{CurrentPage: 2, TotalPage: 3, Total: 31, PerPage: 15},
	}
	mockService.On("List", mock.Anything, uint64(1), 2, 15).Return(result, nil)

	w := doRequest(router, http.MethodGet, "/documents?page=2&per_page=15", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response PaginatedDocuments
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Meta.TotalPage)
	assert.Len(t, response.Data, 1)
	mockService.AssertExpectations(t)
}

func TestSearchAll_UsesStaticRoute(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	matches := []docmodel.DocumentMatches{{DocumentID: "a", Title: "Doc", Results: []docmodel.SearchResult{}}}
	mockService.On("Search", mock.Anything, uint64(1), "cell").Return(matches, nil)

	w := doRequest(router, http.MethodGet, "/documents/search?q=cell", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"document_id":"a"`)
	mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestShowDocument_NotFound(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Get", mock.Anything, "missing", uint64(1)).
		Return(nil, fmt.Errorf("%w: missing", docmodel.ErrDocumentNotFound))

	w := doRequest(router, http.MethodGet, "/documents/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Document not found")
}

func TestShowDocument_NotCollaborator(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Get", mock.Anything, "doc", uint64(1)).
		Return(nil, errors.Forbidden("You are not a collaborator of this document", nil))

	w := doRequest(router, http.MethodGet, "/documents/doc", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteDocument_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Delete", mock.Anything, "doc", uint64(1)).Return(nil)

	w := doRequest(router, http.MethodDelete, "/documents/doc", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestRemoveSection_InvalidIndex(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := doRequest(router, http.MethodDelete, "/documents/doc/sections/first", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddElement_PassesPayloadAndIndex(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	text := docmodel.NewText("Mitochondria", 0)
	mockService.On("AddElement", mock.Anything, "doc", uint64(1), "sec", mock.MatchedBy(func(req ElementRequest) bool {
		return req.Index != nil && *req.Index == 0 && bytes.Contains(req.Element, []byte(`"text"`))
	})).Return(text, nil)

	payload := map[string]any{
		"element": map[string]any{"type": "text", "content": "Mitochondria"},
		"index":   0,
	}
	w := doRequest(router, http.MethodPost, "/documents/doc/sections/sec/elements", payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), text.ID())
	mockService.AssertExpectations(t)
}

func TestAddElement_MissingElement(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := doRequest(router, http.MethodPost, "/documents/doc/sections/sec/elements", map[string]any{"index": 1})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRemoveElement_OutOfRange(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("RemoveElement", mock.Anything, "doc", uint64(1), "sec", 9).
		Return(fmt.Errorf("%w: 9", docmodel.ErrIndexOutOfRange))

	w := doRequest(router, http.MethodDelete, "/documents/doc/sections/sec/elements/9", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestModifyStyling_DecodesPatch(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	text := docmodel.NewText("x", 0)
	mockService.On("ModifyStyling", mock.Anything, "doc", uint64(1), "sec", 0, mock.MatchedBy(func(p docmodel.StylePatch) bool {
		return p.Bold != nil && *p.Bold && p.Color == nil
	})).Return(text, nil)

	w := doRequest(router, http.MethodPatch, "/documents/doc/sections/sec/elements/0/styling", map[string]any{"bold": true})

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSetCell_OutOfRange(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("SetCell", mock.Anything, "doc", uint64(1), "sec", 2, CellRequest{Row: 5, Col: 0, Content: "x"}).
		Return(nil, fmt.Errorf("%w: (5,0)", docmodel.ErrCellOutOfRange))

	w := doRequest(router, http.MethodPut, "/documents/doc/sections/sec/elements/2/cells", CellRequest{Row: 5, Col: 0, Content: "x"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Table cell out of range")
}

func TestAddComment_RequiresElement(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := doRequest(router, http.MethodPost, "/documents/doc/comments", map[string]any{"content": "nice"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response["details"], "ElementID")
}

func TestRemoveCollaborator_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("RemoveCollaborator", mock.Anything, "doc", uint64(1), uint64(7)).Return([]string{"1"}, nil)

	w := doRequest(router, http.MethodDelete, "/documents/doc/collaborators/7", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"collaborators":["1"]}`, w.Body.String())
}

func TestVersions(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("SaveVersion", mock.Anything, "doc", uint64(1)).Return(2, nil)
	mockService.On("CountVersions", mock.Anything, "doc", uint64(1)).Return(3, nil)
	mockService.On("Revert", mock.Anything, "doc", uint64(1), 5).
		Return(nil, fmt.Errorf("%w: version 5 of 3", docmodel.ErrIndexOutOfRange))

	w := doRequest(router, http.MethodPost, "/documents/doc/versions", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"index":2}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/documents/doc/versions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":3}`, w.Body.String())

	w = doRequest(router, http.MethodPost, "/documents/doc/versions/5/revert", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExport_SetsContentType(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Export", mock.Anything, "doc", uint64(1), "txt").
		Return([]byte("Title\n=====\n"), &export.TextExporter{}, nil)

	w := doRequest(router, http.MethodGet, "/documents/doc/export/txt?download=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Title\n=====\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="doc.txt"`)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Export", mock.Anything, "doc", uint64(1), "docx").
		Return(nil, nil, fmt.Errorf("%w: docx", export.ErrUnsupportedFormat))

	w := doRequest(router, http.MethodGet, "/documents/doc/export/docx", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestColumns_DefaultsToTwo(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	columns := [][]*docmodel.Section{{docmodel.NewSection("A")}, {docmodel.NewSection("B")}}
	mockService.On("Columns", mock.Anything, "doc", uint64(1), 2).Return(columns, nil)

	w := doRequest(router, http.MethodGet, "/documents/doc/columns", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"B"`)
	mockService.AssertExpectations(t)
}
