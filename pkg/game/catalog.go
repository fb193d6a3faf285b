// Package game 提供画廊的内容目录、设置与场景管理
package game

import (
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
)

// CatalogItem 目录中的一个内容条目（书里的一页）
type CatalogItem struct {
	Name        string `yaml:"name"`        // 条目名称
	Description string `yaml:"description"` // 条目描述文本
}

// CatalogCategory 一个内容分类（书架上的一本书）
type CatalogCategory struct {
	Key         string        `yaml:"key"`         // 分类键，唯一
	Title       string        `yaml:"title"`       // 书脊标题，缺省用 Key
	Description string        `yaml:"description"` // 分类描述（封面页文本，参与搜索匹配）
	Items       []CatalogItem `yaml:"items"`       // 分类下的条目
}

// Catalog 内容目录
//
// 目录在启动时加载一次，之后只读。没有任何持久化：
// 所有运行期状态都从目录重建。
type Catalog struct {
	Categories []CatalogCategory

	// UsedFallback 标记目录文件缺失或非法、已替换为内置演示目录
	// 场景据此显示一条非致命提示
	UsedFallback bool
}

type catalogFile struct {
	Categories []CatalogCategory `yaml:"categories"`
}

// ParseCatalog 解析目录数据并做结构校验
// 校验失败返回错误，由调用方决定回退策略
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("目录解析失败: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("目录为空: 没有任何分类")
	}

	seen := make(map[string]bool)
	for i := range file.Categories {
		c := &file.Categories[i]
		if c.Key == "" {
			return nil, fmt.Errorf("目录非法: 第 %d 个分类缺少 key", i+1)
		}
		if seen[c.Key] {
			return nil, fmt.Errorf("目录非法: 分类键重复 %s", c.Key)
		}
		seen[c.Key] = true
		if c.Title == "" {
			c.Title = c.Key
		}
	}
	return &Catalog{Categories: file.Categories}, nil
}

// LoadCatalog 加载目录，任何失败都回退到内置演示目录
// read 是读取函数（通常为 embedded.ReadFile），便于测试注入
//
// 返回的目录总是可用的；回退通过 UsedFallback 标记向上层暴露，
// 只作为非致命提示显示给用户
func LoadCatalog(path string, read func(string) ([]byte, error)) *Catalog {
	data, err := read(path)
	if err != nil {
		log.Printf("[Catalog] 目录文件 %s 读取失败: %v（使用演示目录）", path, err)
		return DemoCatalog()
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		log.Printf("[Catalog] %v（使用演示目录）", err)
		return DemoCatalog()
	}
	log.Printf("[Catalog] 加载 %d 个分类", len(catalog.Categories))
	return catalog
}

// Entry 按键查找分类
func (c *Catalog) Entry(key string) (CatalogCategory, bool) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return CatalogCategory{}, false
}

// DemoCatalog 返回内置演示目录
// 每个分类带一个占位条目，保证画廊在没有目录文件时也完整可用
func DemoCatalog() *Catalog {
	placeholder := func(key string) []CatalogItem {
		return []CatalogItem{{
			Name:        "Sample " + key,
			Description: "Placeholder entry. Add a catalog file to replace the demo content.",
		}}
	}
	return &Catalog{
		UsedFallback: true,
		Categories: []CatalogCategory{
			{
				Key:         "FestivalKolams",
				Title:       "Festival Kolams",
				Description: "Kolam designs drawn for Pongal, Diwali and other festival days.",
				Items:       placeholder("FestivalKolams"),
			},
			{
				Key:         "RegionalKolams",
				Title:       "Regional Kolams",
				Description: "Styles from Tamil Nadu, Karnataka, Andhra and beyond.",
				Items:       placeholder("RegionalKolams"),
			},
			{
				Key:         "GeometricKolams",
				Title:       "Geometric Kolams",
				Description: "Dot-grid symmetry studies and line kolams.",
				Items:       placeholder("GeometricKolams"),
			},
			{
				Key:         "DailyKolams",
				Title:       "Daily Kolams",
				Description: "Simple threshold designs for everyday practice.",
				Items:       placeholder("DailyKolams"),
			},
		},
	}
}
