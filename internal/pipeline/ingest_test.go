package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

type stubExtractor struct {
	text   string
	err    error
	called bool
}

func (s *stubExtractor) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	s.called = true
	return s.text, s.err
}

type stubSkills struct {
	result types.SkillExtraction
}

func (s *stubSkills) ExtractSkills(_ context.Context, _ string) types.SkillExtraction {
	return s.result
}

type stubBinaryStore struct {
	uploads map[string][]byte
	err     error
}

func (s *stubBinaryStore) UploadObject(_ context.Context, key string, data []byte, _ string) error {
	if s.err != nil {
		return s.err
	}
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	s.uploads[key] = data
	return nil
}

type stubRecordStore struct {
	records []*models.ResumeRecord
	err     error
}

func (s *stubRecordStore) CreateResumeRecord(_ context.Context, record *models.ResumeRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type stubDedup struct {
	exists bool
	err    error
}

func (s *stubDedup) CheckAndAddFileMD5(_ context.Context, _ string) (bool, error) {
	return s.exists, s.err
}

func newTestIngest(ex *stubExtractor, skills types.SkillExtraction, bin *stubBinaryStore, rec *stubRecordStore, dedup DedupStore) *Ingest {
	p := NewIngest(ex, &stubSkills{result: skills}, bin, rec, dedup)
	p.now = func() time.Time {
		return time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC)
	}
	return p
}

func modelSkills(skills ...string) types.SkillExtraction {
	return types.SkillExtraction{Skills: types.NewSkillSet(skills...), Source: types.SourceModel}
}

func TestIngestHappyPath(t *testing.T) {
	ex := &stubExtractor{text: "Senior backend developer, Go and PostgreSQL"}
	bin := &stubBinaryStore{}
	rec := &stubRecordStore{}
	p := newTestIngest(ex, modelSkills("go", "postgresql"), bin, rec, nil)

	result, err := p.Run(context.Background(), IngestRequest{
		Filename:   "cv.pdf",
		Data:       []byte("%PDF-fake"),
		UploadedBy: "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, StateRecordPersisted, result.State)
	assert.Equal(t, "Backend Developer", result.Role)
	assert.Equal(t, "backend-developer_20250315_103045", result.ResumeID)
	assert.Equal(t, "resumes/backend-developer/cv.pdf", result.StorageKey)
	assert.Equal(t, []string{"go", "postgresql"}, result.Skills)
	assert.Equal(t, types.SourceModel, result.SkillSource)

	// 原件与记录都已写入
	assert.Contains(t, bin.uploads, "resumes/backend-developer/cv.pdf")
	require.Len(t, rec.records, 1)
	assert.Equal(t, result.ResumeID, rec.records[0].ResumeID)
	require.NotNil(t, rec.records[0].UploadedBy)
	assert.Equal(t, "alice", *rec.records[0].UploadedBy)
	assert.Equal(t, []string{"go", "postgresql"}, rec.records[0].Skills().Sorted())
}

func TestIngestRoleOverride(t *testing.T) {
	ex := &stubExtractor{text: "backend developer text"}
	bin := &stubBinaryStore{}
	rec := &stubRecordStore{}
	p := newTestIngest(ex, modelSkills("go"), bin, rec, nil)

	result, err := p.Run(context.Background(), IngestRequest{
		Filename:     "cv.pdf",
		Data:         []byte("data"),
		RoleOverride: "Data Engineer",
	})
	require.NoError(t, err)

	assert.Equal(t, "Data Engineer", result.Role)
	assert.Equal(t, "data-engineer_20250315_103045", result.ResumeID)
	assert.Contains(t, bin.uploads, "resumes/data-engineer/cv.pdf")
	require.Len(t, rec.records, 1)
	assert.Nil(t, rec.records[0].UploadedBy)
}

func TestIngestExtractionErrorIsTerminal(t *testing.T) {
	ex := &stubExtractor{err: errors.New("no extractable text")}
	bin := &stubBinaryStore{}
	rec := &stubRecordStore{}
	p := newTestIngest(ex, modelSkills(), bin, rec, nil)

	result, err := p.Run(context.Background(), IngestRequest{Filename: "scan.pdf", Data: []byte("data")})
	require.Error(t, err)

	assert.Equal(t, StateExtractionError, result.State)
	// 提取失败时既不写对象存储也不落库
	assert.Empty(t, bin.uploads)
	assert.Empty(t, rec.records)
}

func TestIngestRejectsDuplicate(t *testing.T) {
	ex := &stubExtractor{text: "text"}
	p := newTestIngest(ex, modelSkills("go"), &stubBinaryStore{}, &stubRecordStore{}, &stubDedup{exists: true})

	_, err := p.Run(context.Background(), IngestRequest{Filename: "cv.pdf", Data: []byte("same bytes")})
	require.ErrorIs(t, err, ErrDuplicateUpload)
	assert.False(t, ex.called, "重复上传不应进入文本提取")
}

func TestIngestDedupFailureIsTolerated(t *testing.T) {
	ex := &stubExtractor{text: "backend developer"}
	bin := &stubBinaryStore{}
	rec := &stubRecordStore{}
	p := newTestIngest(ex, modelSkills("go"), bin, rec, &stubDedup{err: errors.New("redis down")})

	result, err := p.Run(context.Background(), IngestRequest{Filename: "cv.pdf", Data: []byte("data")})
	require.NoError(t, err, "去重存储不可用时摄入应照常进行")
	assert.Equal(t, StateRecordPersisted, result.State)
}

func TestIngestUploadFailure(t *testing.T) {
	ex := &stubExtractor{text: "backend developer"}
	bin := &stubBinaryStore{err: errors.New("minio unavailable")}
	rec := &stubRecordStore{}
	p := newTestIngest(ex, modelSkills("go"), bin, rec, nil)

	result, err := p.Run(context.Background(), IngestRequest{Filename: "cv.pdf", Data: []byte("data")})
	require.Error(t, err)

	assert.Equal(t, StateRoleDetected, result.State)
	assert.Empty(t, rec.records, "原件写入失败后不应落库")
}

func TestIngestRecordFailureLeavesBinary(t *testing.T) {
	ex := &stubExtractor{text: "backend developer"}
	bin := &stubBinaryStore{}
	rec := &stubRecordStore{err: errors.New("mysql down")}
	p := newTestIngest(ex, modelSkills("go"), bin, rec, nil)

	result, err := p.Run(context.Background(), IngestRequest{Filename: "cv.pdf", Data: []byte("data")})
	require.Error(t, err)

	// 不做补偿回滚：原件保留在对象存储中
	assert.Equal(t, StateStorageWritten, result.State)
	assert.Len(t, bin.uploads, 1)
}

func TestIngestEmptyData(t *testing.T) {
	ex := &stubExtractor{text: "text"}
	p := newTestIngest(ex, modelSkills(), &stubBinaryStore{}, &stubRecordStore{}, nil)

	result, err := p.Run(context.Background(), IngestRequest{Filename: "cv.pdf"})
	require.Error(t, err)
	assert.Equal(t, StateReceived, result.State)
	assert.False(t, ex.called)
}

func TestRoleSlug(t *testing.T) {
	assert.Equal(t, "devops-engineer", RoleSlug("DevOps Engineer"))
	assert.Equal(t, "software-engineer", RoleSlug(" Software Engineer "))
	assert.Equal(t, "backend-developer", RoleSlug("Backend Developer"))
}
