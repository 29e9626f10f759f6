package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var tracer = otel.Tracer("resume-match-go/pipeline")

// State 摄入流程所处的阶段。单向推进，失败即停在当前阶段，
// 不做补偿回滚。
type State string

const (
	StateReceived        State = "RECEIVED"
	StateTextExtracted   State = "TEXT_EXTRACTED"
	StateSkillsExtracted State = "SKILLS_EXTRACTED"
	StateRoleDetected    State = "ROLE_DETECTED"
	StateStorageWritten  State = "STORAGE_WRITTEN"
	StateRecordPersisted State = "RECORD_PERSISTED"
	// 文本提取失败的终止态，原件不落库也不落对象存储
	StateExtractionError State = "EXTRACTION_ERROR"
)

// ErrDuplicateUpload 同一份文件（按内容MD5）已经摄入过
var ErrDuplicateUpload = errors.New("duplicate resume upload")

// TextExtractor 简历原件到纯文本
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, uri string) (string, error)
}

// SkillExtractor 文本到技能集合，带来源标记
type SkillExtractor interface {
	ExtractSkills(ctx context.Context, text string) types.SkillExtraction
}

// BinaryStore 简历原件对象存储
type BinaryStore interface {
	UploadObject(ctx context.Context, objectKey string, data []byte, contentType string) error
}

// RecordStore 简历元数据记录存储
type RecordStore interface {
	CreateResumeRecord(ctx context.Context, record *models.ResumeRecord) error
}

// DedupStore 上传内容去重。可为nil，去重随之关闭。
type DedupStore interface {
	CheckAndAddFileMD5(ctx context.Context, md5Hex string) (bool, error)
}

// IngestRequest 单份简历的摄入请求
type IngestRequest struct {
	Filename string
	Data     []byte
	// 上传者标识，来自Telegram时为用户名，API直传时可为空
	UploadedBy string
	// 指定岗位，非空时跳过关键词岗位分类
	RoleOverride string
}

// IngestResult 摄入结果
type IngestResult struct {
	ResumeID    string
	Role        string
	Skills      []string
	SkillSource types.ResultSource
	StorageKey  string
	State       State
}

// Ingest 简历摄入管道：提取文本、抽取技能、判定岗位、
// 写对象存储、落记录。
type Ingest struct {
	extractor TextExtractor
	skills    SkillExtractor
	binaries  BinaryStore
	records   RecordStore
	dedup     DedupStore

	// 可注入时钟，简历ID带秒级时间戳
	now func() time.Time
}

// NewIngest 创建摄入管道。dedup传nil时关闭上传去重。
func NewIngest(textExtractor TextExtractor, skills SkillExtractor, binaries BinaryStore, records RecordStore, dedup DedupStore) *Ingest {
	return &Ingest{
		extractor: textExtractor,
		skills:    skills,
		binaries:  binaries,
		records:   records,
		dedup:     dedup,
		now:       time.Now,
	}
}

// RoleSlug 岗位名转存储路径片段，例如 "DevOps Engineer" -> "devops-engineer"
func RoleSlug(role string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(role)), " ", "-")
}

// Run 执行完整摄入流程。返回的IngestResult.State标记流程终点；
// 除技能抽取（带降级，永不失败）外任一阶段出错即终止，
// 已写入的对象存储不回滚。
func (p *Ingest) Run(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("resume.filename", req.Filename))

	result := &IngestResult{State: StateReceived}

	if len(req.Data) == 0 {
		err := fmt.Errorf("简历内容为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return result, err
	}

	// 上传去重，尽力而为：去重存储不可用时放行
	if p.dedup != nil {
		md5Hex := storage.TextMD5(req.Data)
		exists, err := p.dedup.CheckAndAddFileMD5(ctx, md5Hex)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("上传去重检查失败，跳过去重")
		} else if exists {
			span.AddEvent("duplicate upload rejected")
			return result, ErrDuplicateUpload
		}
	}

	// 文本提取。失败是终止态：没有文本就没有后续任何阶段
	text, err := p.extractor.ExtractText(ctx, req.Data, req.Filename)
	if err != nil {
		result.State = StateExtractionError
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return result, fmt.Errorf("提取简历文本失败: %w", err)
	}
	result.State = StateTextExtracted
	span.AddEvent("text extracted")

	// 技能抽取自带降级，永不失败
	extraction := p.skills.ExtractSkills(ctx, text)
	result.Skills = extraction.Skills.Sorted()
	result.SkillSource = extraction.Source
	result.State = StateSkillsExtracted
	span.AddEvent("skills extracted")
	span.SetAttributes(
		attribute.Int("resume.skill_count", len(result.Skills)),
		attribute.String("resume.skill_source", string(extraction.Source)),
	)

	// 岗位判定：显式指定优先，否则按关键词分类
	role := req.RoleOverride
	if role == "" {
		role = extractor.ClassifyRole(text)
	}
	result.Role = role
	result.State = StateRoleDetected
	span.SetAttributes(attribute.String("resume.role", role))

	slug := RoleSlug(role)
	result.ResumeID = fmt.Sprintf("%s_%s", slug, p.now().Format(constants.ResumeIDTimeLayout))
	result.StorageKey = constants.ResumeKeyPrefix + slug + "/" + req.Filename

	if err := p.binaries.UploadObject(ctx, result.StorageKey, req.Data, constants.PDFContentType); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return result, fmt.Errorf("写入简历原件失败: %w", err)
	}
	result.State = StateStorageWritten
	span.AddEvent("binary stored")

	record := &models.ResumeRecord{
		ResumeID:   result.ResumeID,
		Role:       role,
		StorageKey: result.StorageKey,
		Filename:   req.Filename,
	}
	if req.UploadedBy != "" {
		record.UploadedBy = &req.UploadedBy
	}
	if err := record.SetSkills(extraction.Skills); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return result, fmt.Errorf("序列化技能列表失败: %w", err)
	}

	// 记录写入失败时原件已在对象存储中，留待人工清理
	if err := p.records.CreateResumeRecord(ctx, record); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return result, fmt.Errorf("持久化简历记录失败: %w", err)
	}
	result.State = StateRecordPersisted

	logger.Ctx(ctx).Info().
		Str("resume_id", result.ResumeID).
		Str("role", role).
		Int("skill_count", len(result.Skills)).
		Str("skill_source", string(extraction.Source)).
		Msg("简历摄入完成")
	return result, nil
}
