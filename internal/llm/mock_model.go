package llm

import (
	"errors"
	"fmt"

	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse MockChatModel 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 用于测试的 model.ChatModel 模拟实现。
// 支持固定响应和按顺序返回的多次响应两种模式。
type MockChatModel struct {
	// 固定响应模式
	ExpectedResponse string
	ExpectedError    error

	// 顺序响应模式
	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	// 记录所有调用收到的消息，便于断言提示词内容
	ReceivedMessages []*schema.Message
	// 最近一次调用携带的token预算，0表示调用方没有传
	LastMaxTokens int
}

// NewMockChatModel 创建固定响应的模拟模型
func NewMockChatModel(response string, err error) *MockChatModel {
	return &MockChatModel{
		ExpectedResponse: response,
		ExpectedError:    err,
		ReceivedMessages: make([]*schema.Message, 0),
	}
}

// NewMockChatModelSequential 创建按顺序返回不同响应的模拟模型
func NewMockChatModelSequential(responses []MockResponse) *MockChatModel {
	return &MockChatModel{
		SequentialResponses: responses,
		IsSequential:        true,
		ReceivedMessages:    make([]*schema.Message, 0),
	}
}

// Generate 模拟推理调用
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.ReceivedMessages = append(m.ReceivedMessages, input...)
	if parsed := model.GetCommonOptions(&model.Options{}, opts...); parsed.MaxTokens != nil {
		m.LastMaxTokens = *parsed.MaxTokens
	}

	if m.IsSequential {
		if m.ResponseIndex >= len(m.SequentialResponses) {
			return nil, errors.New("mock: 顺序响应已用尽")
		}
		resp := m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return schema.AssistantMessage(resp.Content, nil), nil
	}

	if m.ExpectedError != nil {
		return nil, m.ExpectedError
	}
	return schema.AssistantMessage(m.ExpectedResponse, nil), nil
}

// Stream 模拟流式调用（不支持）
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("mock: 不支持流式输出")
}

// BindTools 模拟工具绑定
func (m *MockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}
