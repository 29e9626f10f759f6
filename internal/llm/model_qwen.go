package llm // 推理服务客户端：OpenAI兼容协议的eino ChatModel实现

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-match-go/internal/logger"
)

const (
	defaultAPIURL    = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultModelName = "qwen-turbo"
	defaultTimeout   = 60 * time.Second
)

// chatCompletionRequest OpenAI兼容的请求体
type chatCompletionRequest struct {
	Model     string            `json:"model"`
	Messages  []*schema.Message `json:"messages"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int `json:"index"`
	Message      struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// QwenChatModel 通过OpenAI兼容端点访问通义千问，实现 eino 的
// model.ChatModel 接口。本服务只做单轮文本补全，不支持工具调用与流式。
type QwenChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
}

// NewQwenChatModel 创建推理服务客户端。modelName/apiURL 为空、
// timeout<=0 时使用默认值
func NewQwenChatModel(apiKey, modelName, apiURL string, timeout time.Duration) (*QwenChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModelName
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &QwenChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Generate 实现 model.ChatModel 接口。支持 model.WithMaxTokens 传入
// 单次调用的token预算
func (q *QwenChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	opts := model.GetCommonOptions(&model.Options{}, options...)

	reqPayload := chatCompletionRequest{
		Model:    q.modelName,
		Messages: messages,
	}
	if opts.MaxTokens != nil {
		reqPayload.MaxTokens = *opts.MaxTokens
	}
	if opts.Model != nil && *opts.Model != "" {
		reqPayload.Model = *opts.Model
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, q.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+q.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("反序列化API响应失败: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("API返回空choices: %s", string(bodyBytes))
	}

	apiMessage := apiResp.Choices[0].Message
	content := ""
	if apiMessage.Content != nil {
		content = *apiMessage.Content
	}

	logger.Debug().
		Str("model", reqPayload.Model).
		Int("response_len", len(content)).
		Msg("推理服务调用完成")

	role := schema.RoleType(apiMessage.Role)
	if role == "" {
		role = "assistant"
	}
	return &schema.Message{Role: role, Content: content}, nil
}

// Stream 实现 model.ChatModel 接口。本服务不需要流式输出
func (q *QwenChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("QwenChatModel 未实现流式输出")
}

// BindTools 实现 model.ChatModel 接口。匹配服务不使用工具调用
func (q *QwenChatModel) BindTools(tools []*schema.ToolInfo) error {
	return fmt.Errorf("QwenChatModel 不支持工具调用")
}
