package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/condense/internal/profile"
	"github.com/hrygo/condense/job"
)

func newTestService(t *testing.T) (*APIV1Service, *job.MemoryStore) {
	t.Helper()
	store := job.NewMemoryStore(job.MemoryStoreConfig{})
	t.Cleanup(store.Close)
	return NewAPIV1Service(&profile.Profile{Mode: "dev"}, nil, store), store
}

func doRequest(t *testing.T, s *APIV1Service, method, path, body string, paramName, paramValue string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramName != "" {
		c.SetParamNames(paramName)
		c.SetParamValues(paramValue)
	}

	var err error
	switch {
	case method == http.MethodPost:
		err = s.CreateSummarizeJob(c)
	case method == http.MethodGet:
		err = s.GetJob(c)
	case method == http.MethodDelete:
		err = s.DeleteJob(c)
	}
	require.NoError(t, err)
	return rec
}

func TestCreateSummarizeJobMalformedBody(t *testing.T) {
	s, _ := newTestService(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/summarize", "{not json", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_argument")
}

func TestGetJob(t *testing.T) {
	s, store := newTestService(t)

	j := job.New("map", nil)
	j.Start()
	store.Put(j)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+j.ID(), "", "id", j.ID())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)
	assert.Contains(t, rec.Body.String(), j.ID())
}

func TestGetJobNotFound(t *testing.T) {
	s, _ := newTestService(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/jobs/ghost", "", "id", "ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteJob(t *testing.T) {
	s, store := newTestService(t)

	j := job.New("map", nil)
	store.Put(j)

	rec := doRequest(t, s, http.MethodDelete, "/api/v1/jobs/"+j.ID(), "", "id", j.ID())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, ok := store.Get(j.ID())
	assert.False(t, ok)
}

func TestDeleteJobNotFound(t *testing.T) {
	s, _ := newTestService(t)
	rec := doRequest(t, s, http.MethodDelete, "/api/v1/jobs/ghost", "", "id", "ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
