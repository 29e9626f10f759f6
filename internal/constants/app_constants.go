package constants

import "time"

const (
	// 对象存储键格式：resumes/{role-slug}/{filename}
	ResumeKeyPrefix = "resumes/"
	PDFContentType  = "application/pdf"

	// Redis键
	RequirementCachePrefix = "jd_requirement:"   // + JD内容MD5
	UploadedFileMD5SetKey  = "resumes:file_md5s" // 上传文件MD5集合，用于去重

	// 默认过期时长
	DefaultRequirementCacheTTL = 24 * time.Hour
	DefaultPresignTTL          = time.Hour

	// 简历ID时间戳精确到秒，同角色同秒内上传会冲突，已知限制
	ResumeIDTimeLayout = "20060102_150405"
)
