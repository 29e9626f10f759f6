package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

type stubIngestor struct {
	result  *pipeline.IngestResult
	err     error
	lastReq pipeline.IngestRequest
	calls   int
}

func (s *stubIngestor) Run(ctx context.Context, req pipeline.IngestRequest) (*pipeline.IngestResult, error) {
	s.calls++
	s.lastReq = req
	return s.result, s.err
}

func newUploadEngine(ingest Ingestor) *server.Hertz {
	h := server.New()
	h.POST("/api/v1/resume/upload", NewUploadHandler(ingest).HandleUpload)
	return h
}

func uploadBody(name, data string) string {
	return fmt.Sprintf(`{"resume_name": %q, "resume_data": %q}`,
		name, base64.StdEncoding.EncodeToString([]byte(data)))
}

func TestHandleUploadSuccess(t *testing.T) {
	ingest := &stubIngestor{result: &pipeline.IngestResult{
		ResumeID:    "backend-developer_20250315_103045",
		Role:        "Backend Developer",
		Skills:      []string{"go", "mysql"},
		SkillSource: types.SourceModel,
		StorageKey:  "resumes/backend-developer/cv.pdf",
		State:       pipeline.StateRecordPersisted,
	}}
	h := newUploadEngine(ingest)

	resp := performJSON(t, h, "POST", "/api/v1/resume/upload", uploadBody("cv.pdf", "%PDF-1.4 fake"))
	require.Equal(t, 200, resp.Code)

	var body UploadResponse
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &body))
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, "backend-developer_20250315_103045", body.ResumeID)
	assert.Equal(t, "Backend Developer", body.Role)
	assert.Equal(t, []string{"go", "mysql"}, body.SkillsExtracted)
	assert.Equal(t, "resumes/backend-developer/cv.pdf", body.StorageKey)

	assert.Equal(t, "cv.pdf", ingest.lastReq.Filename)
	assert.Equal(t, []byte("%PDF-1.4 fake"), ingest.lastReq.Data)
}

func TestHandleUploadRoleOverrideForwarded(t *testing.T) {
	ingest := &stubIngestor{result: &pipeline.IngestResult{State: pipeline.StateRecordPersisted}}
	h := newUploadEngine(ingest)

	body := fmt.Sprintf(`{"resume_name": "cv.pdf", "resume_data": %q, "role": " DevOps Engineer "}`,
		base64.StdEncoding.EncodeToString([]byte("pdf")))
	resp := performJSON(t, h, "POST", "/api/v1/resume/upload", body)
	require.Equal(t, 200, resp.Code)
	assert.Equal(t, "DevOps Engineer", ingest.lastReq.RoleOverride)
}

func TestHandleUploadValidationErrors(t *testing.T) {
	ingest := &stubIngestor{}
	h := newUploadEngine(ingest)

	// 缺文件名
	resp := performJSON(t, h, "POST", "/api/v1/resume/upload", `{"resume_data": "aGVsbG8="}`)
	assert.Equal(t, 400, resp.Code)

	// 非PDF扩展名
	resp = performJSON(t, h, "POST", "/api/v1/resume/upload", `{"resume_name": "cv.docx", "resume_data": "aGVsbG8="}`)
	assert.Equal(t, 400, resp.Code)

	// base64解不开
	resp = performJSON(t, h, "POST", "/api/v1/resume/upload", `{"resume_name": "cv.pdf", "resume_data": "!!!not-base64!!!"}`)
	assert.Equal(t, 400, resp.Code)

	// 空内容
	resp = performJSON(t, h, "POST", "/api/v1/resume/upload", `{"resume_name": "cv.pdf", "resume_data": ""}`)
	assert.Equal(t, 400, resp.Code)

	assert.Zero(t, ingest.calls, "校验失败不应触发摄入")
}

func TestHandleUploadExtractionErrorReturns400(t *testing.T) {
	ingest := &stubIngestor{
		result: &pipeline.IngestResult{State: pipeline.StateExtractionError},
		err:    fmt.Errorf("文本提取失败: 无可提取文本"),
	}
	h := newUploadEngine(ingest)

	resp := performJSON(t, h, "POST", "/api/v1/resume/upload", uploadBody("scan.pdf", "scanned image bytes"))
	assert.Equal(t, 400, resp.Code)
}

func TestHandleUploadDuplicateReturns409(t *testing.T) {
	ingest := &stubIngestor{err: fmt.Errorf("重复上传: %w", pipeline.ErrDuplicateUpload)}
	h := newUploadEngine(ingest)

	resp := performJSON(t, h, "POST", "/api/v1/resume/upload", uploadBody("cv.pdf", "same bytes"))
	assert.Equal(t, 409, resp.Code)
}

func TestHandleUploadPipelineFailureReturns500(t *testing.T) {
	ingest := &stubIngestor{
		result: &pipeline.IngestResult{State: pipeline.StateRoleDetected},
		err:    fmt.Errorf("对象存储写入失败"),
	}
	h := newUploadEngine(ingest)

	resp := performJSON(t, h, "POST", "/api/v1/resume/upload", uploadBody("cv.pdf", "pdf bytes"))
	assert.Equal(t, 500, resp.Code)
}
