package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/abhijeets54/feedback-backend/config"
	"github.com/abhijeets54/feedback-backend/internal/model"
)

const geminiPrompt = `Classify the overall sentiment of the following workplace feedback.
Answer with exactly one word: positive, neutral, or negative.

Feedback:
%s`

// contentGenerator *genai.GenerativeModel 的最小子集
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini 调用 Gemini 模型进行情感分类
type Gemini struct {
	client  *genai.Client
	model   contentGenerator
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini 创建 Gemini 分类器
func NewGemini(ctx context.Context, cfg *config.SentimentConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("未配置 sentiment.gemini_api_key")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	gm := client.GenerativeModel(cfg.GeminiModel)
	gm.SetTemperature(0)
	gm.SetMaxOutputTokens(8)

	return &Gemini{client: client, model: gm, timeout: cfg.Timeout, logger: logger}, nil
}

// Classify 单次调用；超时、调用错误或无法识别的回答均返回 ErrUnavailable
func (g *Gemini) Classify(ctx context.Context, text string) (model.Sentiment, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(geminiPrompt, text)))
	if err != nil {
		g.logger.Warn("Gemini 情感分类调用失败", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s, err := parseGeminiResponse(resp)
	if err != nil {
		g.logger.Warn("Gemini 返回无法识别", zap.Error(err))
		return "", err
	}
	return s, nil
}

// Close 释放底层连接
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (model.Sentiment, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: 空响应", ErrUnavailable)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	answer := strings.ToLower(strings.TrimSpace(sb.String()))
	answer = strings.Trim(answer, ".\"'` \n")
	s := model.Sentiment(answer)
	if !s.Valid() {
		return "", fmt.Errorf("%w: 无法识别的回答 %q", ErrUnavailable, answer)
	}
	return s, nil
}
