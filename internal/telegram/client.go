package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-match-go/internal/logger"
)

const (
	defaultAPIURL  = "https://api.telegram.org"
	defaultTimeout = 30 * time.Second

	// Telegram单文件下载上限，Bot API的硬限制
	MaxFileSizeBytes = 20 * 1024 * 1024
)

// Update Telegram webhook推送的一次更新
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message 聊天消息
type Message struct {
	MessageID int64     `json:"message_id"`
	From      *User     `json:"from"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text"`
	Caption   string    `json:"caption"`
	Document  *Document `json:"document"`
}

// User 消息发送者
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Chat 会话
type Chat struct {
	ID int64 `json:"id"`
}

// Document 消息附带的文件
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type fileInfo struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
}

// Client Telegram Bot API客户端。只覆盖本服务用到的三个方法：
// 发消息、查文件路径、下载文件。
type Client struct {
	botToken   string
	apiURL     string
	httpClient *http.Client
}

// NewClient 创建Telegram客户端。apiURL为空时使用官方端点
func NewClient(botToken, apiURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("bot token不能为空")
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		botToken:   botToken,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SendMessage 向会话发送Markdown格式的文本消息
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.botToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return fmt.Errorf("解析sendMessage响应失败: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("sendMessage失败: %s", resp.Description)
	}

	logger.Debug().Int64("chat_id", chatID).Int("text_len", len(text)).Msg("Telegram消息已发送")
	return nil
}

// GetFilePath 按file_id查询文件的下载路径
func (c *Client) GetFilePath(ctx context.Context, fileID string) (string, error) {
	url := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.apiURL, c.botToken, fileID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应体失败: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return "", fmt.Errorf("解析getFile响应失败: %w", err)
	}
	if !resp.OK {
		return "", fmt.Errorf("getFile失败: %s", resp.Description)
	}

	var info fileInfo
	if err := json.Unmarshal(resp.Result, &info); err != nil {
		return "", fmt.Errorf("解析文件信息失败: %w", err)
	}
	if info.FilePath == "" {
		return "", fmt.Errorf("getFile返回空文件路径")
	}
	return info.FilePath, nil
}

// DownloadFile 按getFile返回的路径下载文件内容
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.botToken, filePath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载文件失败，状态 %s", httpResp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxFileSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取文件内容失败: %w", err)
	}
	if len(data) > MaxFileSizeBytes {
		return nil, fmt.Errorf("文件超过%dMB下载上限", MaxFileSizeBytes/1024/1024)
	}
	return data, nil
}
