package storage

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-match-go/internal/config"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-match-go/storage/mysql")

// MySQL 结构化记录存储。对外只暴露 put 和全量 scan：
// 过滤、排序全部发生在匹配层，不下推给存储。
type MySQL struct {
	db *gorm.DB
}

// NewMySQL 创建MySQL连接并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	gormLogLevel := gormlogger.Warn
	if cfg.LogLevel >= 4 {
		gormLogLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接池失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.AutoMigrate(&models.ResumeRecord{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &MySQL{db: db}, nil
}

// DB 返回底层gorm连接，测试替换用
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭连接池
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateResumeRecord 写入一条简历记录。记录不可变，主键冲突即报错
func (m *MySQL) CreateResumeRecord(ctx context.Context, record *models.ResumeRecord) error {
	ctx, span := mysqlTracer.Start(ctx, "mysql.CreateResumeRecord")
	defer span.End()
	span.SetAttributes(attribute.String("resume.id", record.ResumeID))

	if err := m.db.WithContext(ctx).Create(record).Error; err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return fmt.Errorf("写入简历记录失败: %w", err)
	}
	return nil
}

// ListResumeRecords 全量扫描简历记录
func (m *MySQL) ListResumeRecords(ctx context.Context) ([]models.ResumeRecord, error) {
	ctx, span := mysqlTracer.Start(ctx, "mysql.ListResumeRecords")
	defer span.End()

	var records []models.ResumeRecord
	if err := m.db.WithContext(ctx).Find(&records).Error; err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("扫描简历记录失败: %w", err)
	}
	span.SetAttributes(attribute.Int("resume.count", len(records)))
	return records, nil
}
