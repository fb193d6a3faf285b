package game

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// ResourceManager 管理字体等共享资源
// 字体按字号缓存，同一字号的 Face 全程只创建一次
type ResourceManager struct {
	fontSource    *text.GoTextFaceSource
	fontFaceCache map[string]*text.GoTextFace
}

// NewResourceManager 创建资源管理器
// 内置字体（Go Regular）解析失败属于环境损坏，直接返回错误
func NewResourceManager() (*ResourceManager, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("内置字体解析失败: %w", err)
	}
	return &ResourceManager{
		fontSource:    source,
		fontFaceCache: make(map[string]*text.GoTextFace),
	}, nil
}

// Face 返回指定字号的字体 Face（带缓存）
func (rm *ResourceManager) Face(size float64) *text.GoTextFace {
	cacheKey := fmt.Sprintf("goregular:%.1f", size)
	if face, exists := rm.fontFaceCache[cacheKey]; exists {
		return face
	}
	face := &text.GoTextFace{
		Source:    rm.fontSource,
		Size:      size,
		Direction: text.DirectionLeftToRight,
	}
	rm.fontFaceCache[cacheKey] = face
	return face
}
