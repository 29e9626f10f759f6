package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"resume-match-go/internal/types"
)

// ResumeRecord 简历元数据表。一次成功摄入创建一条记录，此后不可变：
// 存储层只提供 Create 与全量 Scan，没有更新路径。
type ResumeRecord struct {
	ResumeID   string         `gorm:"type:varchar(128);primaryKey"`
	Role       string         `gorm:"type:varchar(128);not null"`
	SkillsJSON datatypes.JSON `gorm:"type:json"` // 排序后的技能数组
	StorageKey string         `gorm:"type:varchar(1024);not null"`
	Filename   string         `gorm:"type:varchar(255)"`
	UploadedBy *string        `gorm:"type:varchar(128)"` // 聊天上传时为上传者标识，直连API上传为空
	CreatedAt  time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (ResumeRecord) TableName() string {
	return "resume_records"
}

// SetSkills 将技能集合序列化进JSON列
func (r *ResumeRecord) SetSkills(skills types.SkillSet) error {
	data, err := json.Marshal(skills)
	if err != nil {
		return err
	}
	r.SkillsJSON = datatypes.JSON(data)
	return nil
}

// Skills 反序列化技能集合。列为空或损坏时返回空集合，
// 匹配路径对单条脏数据应当容忍而不是失败
func (r *ResumeRecord) Skills() types.SkillSet {
	var skills types.SkillSet
	if len(r.SkillsJSON) == 0 {
		return types.NewSkillSet()
	}
	if err := json.Unmarshal(r.SkillsJSON, &skills); err != nil {
		return types.NewSkillSet()
	}
	return skills
}

// Profile 转换为匹配路径使用的只读视图
func (r *ResumeRecord) Profile() types.ResumeProfile {
	return types.ResumeProfile{
		ResumeID:   r.ResumeID,
		Role:       r.Role,
		Skills:     r.Skills(),
		StorageKey: r.StorageKey,
	}
}
