// Package sentiment 情感分类器。分类器对业务层是不透明的协作方：
// 返回 positive / neutral / negative 之一，或 ErrUnavailable。
package sentiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/config"
	"github.com/abhijeets54/feedback-backend/internal/model"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// ErrUnavailable 分类器不可用（超时、调用失败、无法解析结果）
var ErrUnavailable = pkgerrors.ErrClassifierUnavailable

// Classifier 情感分类接口
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Sentiment, error)
}

// Func 函数适配器
type Func func(ctx context.Context, text string) (model.Sentiment, error)

// Classify 实现 Classifier
func (f Func) Classify(ctx context.Context, text string) (model.Sentiment, error) {
	return f(ctx, text)
}

// New 按配置创建分类器；返回的 close 函数在进程退出时调用
func New(ctx context.Context, cfg *config.SentimentConfig, logger *zap.Logger) (Classifier, func() error, error) {
	switch cfg.Provider {
	case config.SentimentProviderLexicon, "":
		logger.Info("使用词典情感分类器")
		return NewLexicon(), func() error { return nil }, nil
	case config.SentimentProviderGemini:
		g, err := NewGemini(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("使用 Gemini 情感分类器", zap.String("model", cfg.GeminiModel))
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("未知的情感分类提供方: %s", cfg.Provider)
	}
}
