package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
)

// Redis 缓存层：职位需求抽取结果缓存 + 上传文件MD5去重集合。
// 两者都是尽力而为——Redis不可用时调用方照常工作，只是慢一些/
// 重复摄入不再被拦截。
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭客户端
func (r *Redis) Close() error {
	return r.Client.Close()
}

// TextMD5 文本的MD5十六进制摘要，缓存键和去重集合共用
func TextMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// GetCachedRequirement 读取已缓存的需求抽取结果（JSON）。
// 未命中返回空串和nil错误。
func (r *Redis) GetCachedRequirement(ctx context.Context, jdMD5 string) (string, error) {
	val, err := r.Client.Get(ctx, constants.RequirementCachePrefix+jdMD5).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("读取需求缓存失败: %w", err)
	}
	return val, nil
}

// CacheRequirement 写入需求抽取结果
func (r *Redis) CacheRequirement(ctx context.Context, jdMD5 string, requirementJSON string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = constants.DefaultRequirementCacheTTL
	}
	if err := r.Client.Set(ctx, constants.RequirementCachePrefix+jdMD5, requirementJSON, ttl).Err(); err != nil {
		return fmt.Errorf("写入需求缓存失败: %w", err)
	}
	return nil
}

// CheckAndAddFileMD5 原子性地检查并登记上传文件的MD5。
// 返回true表示该文件之前已上传过。
func (r *Redis) CheckAndAddFileMD5(ctx context.Context, md5Hex string) (bool, error) {
	added, err := r.Client.SAdd(ctx, constants.UploadedFileMD5SetKey, md5Hex).Result()
	if err != nil {
		return false, fmt.Errorf("登记文件MD5失败: %w", err)
	}
	return added == 0, nil
}
