package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// GallerySettings 画廊偏好设置
// 这些设置是全局的，不绑定到特定目录内容
type GallerySettings struct {
	// ReducedMotion 减少动态效果：启动时选择无动画的补间与阅读器实现
	ReducedMotion bool `yaml:"reducedMotion"`

	// Fullscreen 启动时是否全屏
	Fullscreen bool `yaml:"fullscreen"`

	// LastFilter 上次退出时的分类过滤键，启动时恢复（"" = 无过滤）
	LastFilter string `yaml:"lastFilter"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *GallerySettings {
	return &GallerySettings{
		ReducedMotion: false,
		Fullscreen:    false,
		LastFilter:    "",
	}
}

// SettingsManager 设置管理器
// 负责偏好设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager   // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *GallerySettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "gallery"
)

// NewSettingsManager 创建新的设置管理器实例
//
// gdataManager 可为 nil：降级为仅内存设置，不持久化也不报错
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	// 加载失败不是致命错误，使用默认设置
	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载设置
// gdataManager 为 nil 或文件不存在时使用默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var loaded GallerySettings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	sm.settings = &loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
// gdataManager 为 nil 时静默成功（降级模式）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *GallerySettings {
	return sm.settings
}

// SetReducedMotion 设置减少动态效果偏好
// 仅修改内存中的设置，需调用 Save() 持久化；
// 对补间/阅读器实现的选择在下次启动时生效
func (sm *SettingsManager) SetReducedMotion(enabled bool) {
	sm.settings.ReducedMotion = enabled
}

// SetFullscreen 设置全屏模式
// 仅修改内存中的设置，需调用 Save() 持久化
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// SetLastFilter 记录当前分类过滤键
// 仅修改内存中的设置，需调用 Save() 持久化
func (sm *SettingsManager) SetLastFilter(key string) {
	sm.settings.LastFilter = key
}
