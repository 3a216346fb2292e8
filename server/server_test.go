package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchain"
	"github.com/hupe1980/agentchain/core"
	"github.com/hupe1980/agentchain/internal/testutil"
)

func newTestServer(t *testing.T, agents ...core.Agent) (*Server, *agentchain.AgentChain) {
	t.Helper()

	chain := agentchain.New(func(o *agentchain.Options) {
		o.EntryAgent = "Entry"
	})
	for _, a := range agents {
		chain.RegisterAgent(a)
	}
	return New(chain), chain
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewStubAgent("Entry"))

	rec := doJSON(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, []any{"Entry"}, body["agents"])
}

func TestListAgents(t *testing.T) {
	srv, _ := newTestServer(t,
		testutil.NewStubAgent("Entry"),
		testutil.NewStubAgent("Analyst"),
	)

	rec := doJSON(t, srv, http.MethodGet, "/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []AgentInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "Analyst", infos[0].Name)
	assert.Equal(t, "Entry", infos[1].Name)
	assert.NotEmpty(t, infos[0].Capabilities)
}

func TestChat(t *testing.T) {
	entry := testutil.NewStubAgent("Entry", core.AgentResult{
		Success: true,
		Data:    map[string]any{"answer": "42"},
	})
	srv, _ := newTestServer(t, entry)

	rec := doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "what is 40+2?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Response)
	assert.Equal(t, []string{"Entry"}, resp.Response.Chain)
}

func TestChatReusesSession(t *testing.T) {
	entry := testutil.NewStubAgent("Entry", core.AgentResult{Success: true})
	srv, _ := newTestServer(t, entry)

	first := doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, first.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))

	second := doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{
		Message:   "again",
		SessionID: resp.SessionID,
	})
	require.Equal(t, http.StatusOK, second.Code)

	var resp2 ChatResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp2))
	assert.Equal(t, resp.SessionID, resp2.SessionID)
	assert.Equal(t, 2, entry.CallCount())
}

func TestChatValidation(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewStubAgent("Entry"))

	rec := doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("not json"))
	rec2 := httptest.NewRecorder()
	srv.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestChatUnknownEntryAgent(t *testing.T) {
	// No agent registered under the configured entry name.
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "Entry")
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	srv, chain := newTestServer(t, testutil.NewStubAgent("Entry"))

	body, contentType := multipartUpload(t, "data.csv", "a,b\n1,2\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "data.csv", resp["file_uploaded"])
	assert.NotContains(t, resp, "response")

	sess, err := chain.Session(resp["session_id"].(string))
	require.NoError(t, err)
	assert.Contains(t, sess.UploadedFiles, "data.csv")
}

func TestUploadWithMessage(t *testing.T) {
	entry := testutil.NewStubAgent("Entry", core.AgentResult{
		Success: true,
		Data:    map[string]any{"analysis": "two rows"},
	})
	srv, _ := newTestServer(t, entry)

	body, contentType := multipartUpload(t, "data.csv", "a,b\n1,2\n", map[string]string{
		"message": "summarize this file",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "response")

	inputs := entry.Inputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, "summarize this file", inputs[0].Query)
	assert.Contains(t, inputs[0].Files, "data.csv")
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	chain := agentchain.New(func(o *agentchain.Options) { o.EntryAgent = "Entry" })
	chain.RegisterAgent(testutil.NewStubAgent("Entry"))
	srv := New(chain, func(o *Options) { o.MaxUploadBytes = 64 })

	body, contentType := multipartUpload(t, "data.csv", strings.Repeat("a,b\n", 200), nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadRejectsNonCSV(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewStubAgent("Entry"))

	body, contentType := multipartUpload(t, "notes.txt", "hello", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSV")
}

func TestGetAndDeleteSession(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewStubAgent("Entry", core.AgentResult{Success: true}))

	rec := doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	get := doJSON(t, srv, http.MethodGet, "/session/"+resp.SessionID, nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), resp.SessionID)

	del := doJSON(t, srv, http.MethodDelete, "/session/"+resp.SessionID, nil)
	require.Equal(t, http.StatusOK, del.Code)
	assert.Contains(t, del.Body.String(), fmt.Sprintf("Session %s deleted", resp.SessionID))

	gone := doJSON(t, srv, http.MethodGet, "/session/"+resp.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewStubAgent("Entry"))

	rec := doJSON(t, srv, http.MethodGet, "/session/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	del := doJSON(t, srv, http.MethodDelete, "/session/missing", nil)
	assert.Equal(t, http.StatusNotFound, del.Code)
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer(t, testutil.NewStubAgent("Entry", core.AgentResult{Success: true}))

	doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "one"})
	doJSON(t, srv, http.MethodPost, "/chat", ChatRequest{Message: "two"})

	rec := doJSON(t, srv, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		History []json.RawMessage `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.History, 2)
}
