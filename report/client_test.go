package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/contentd/core"
)

func testJob(ext string, kind core.SourceKind) core.IndexJob {
	return core.IndexJob{
		TaskID:        "5b2f7a9e-4c1d-4f3e-9a8b-7c6d5e4f3a2b",
		ContentBaseID: "4f8a4f04-93d4-4e27-a6c3-61fa2c6a1b1d",
		FileID:        "9a6e1cf0-5f2d-4db5-8df6-0c3a9e0a51b2",
		Filename:      "handbook." + ext,
		Extension:     ext,
		Source:        "tenant/handbook." + ext,
		Kind:          kind,
	}
}

func TestReportSuccess(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth string
		gotBody                     taskUpdate
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	job := testJob("pdf", core.SourceKindFile)
	client := NewClient(srv.URL, "secret-token", srv.Client())
	require.NoError(t, client.Report(context.Background(), job, true))

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/tasks/"+job.TaskID, gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, job.TaskID, gotBody.TaskUUID)
	assert.True(t, gotBody.Success)
	assert.Equal(t, "file", gotBody.FileType)
}

func TestReportFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "task gone", http.StatusGone)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", srv.Client())
	err := client.Report(context.Background(), testJob("txt", core.SourceKindFile), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "text", FileType(testJob("txt", core.SourceKindFile)))
	assert.Equal(t, "text", FileType(testJob("txt", core.SourceKindText)))
	assert.Equal(t, "link", FileType(testJob("urls", core.SourceKindURL)))
	assert.Equal(t, "file", FileType(testJob("pdf", core.SourceKindFile)))
	assert.Equal(t, "file", FileType(testJob("docx", core.SourceKindFile)))
}
