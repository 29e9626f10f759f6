package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/telegram"
)

// fakeBotServer 本地Bot API，记录发出的每条消息文本
type fakeBotServer struct {
	mu    sync.Mutex
	sent  []string
	serve *httptest.Server
}

func newFakeBotServer(t *testing.T) *fakeBotServer {
	t.Helper()
	f := &fakeBotServer{}
	f.serve = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			if text, ok := body["text"].(string); ok {
				f.mu.Lock()
				f.sent = append(f.sent, text)
				f.mu.Unlock()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "result": {}}`))
	}))
	t.Cleanup(f.serve.Close)
	return f
}

func (f *fakeBotServer) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestHandleDocumentRejectsNonPDFMimeType(t *testing.T) {
	bot := newFakeBotServer(t)
	client, err := telegram.NewClient("test-token", bot.serve.URL, 5*time.Second)
	require.NoError(t, err)

	ingest := &stubIngestor{}
	h := NewTelegramHandler(client, ingest, nil, nil)

	// 文件名是.pdf但声明类型不是application/pdf，不能进摄入流程
	h.handleDocument(context.Background(), &telegram.Message{
		Chat: telegram.Chat{ID: 42},
		Document: &telegram.Document{
			FileID:   "f1",
			FileName: "cv.pdf",
			MimeType: "application/octet-stream",
		},
	})

	assert.Zero(t, ingest.calls, "非PDF声明类型的文件不应被摄入")
	msgs := bot.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "PDF")
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF(&telegram.Document{MimeType: "application/pdf"}))
	assert.True(t, isPDF(&telegram.Document{MimeType: "application/pdf", FileName: "Resume.PDF"}))

	// 媒体类型必须精确匹配，.pdf 后缀不能放行其他类型
	assert.False(t, isPDF(&telegram.Document{MimeType: "application/octet-stream", FileName: "cv.pdf"}))
	assert.False(t, isPDF(&telegram.Document{FileName: "Resume.PDF"}))
	assert.False(t, isPDF(&telegram.Document{MimeType: "image/png", FileName: "photo.png"}))
	assert.False(t, isPDF(&telegram.Document{MimeType: "application/msword", FileName: "cv.docx"}))
}
