// Package app 提供画廊应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/kolamshelf/pkg/config"
	"github.com/decker502/kolamshelf/pkg/embedded"
	"github.com/decker502/kolamshelf/pkg/gallery"
	"github.com/decker502/kolamshelf/pkg/game"
	"github.com/decker502/kolamshelf/pkg/scenes"
	"github.com/decker502/kolamshelf/pkg/tween"
	"github.com/decker502/kolamshelf/pkg/viewer"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Category 启动后直接打开的分类键（如 "FestivalKolams"），为空则停在书架
	Category string
	// ReducedMotion 强制无动画模式（覆盖已保存的偏好）
	ReducedMotion bool
}

// App 是画廊应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	machine      *gallery.Machine
	verbose      bool

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数

	pendingCategory string // 启动后第一帧要打开的分类
}

// 书脊配色盘，按注册顺序循环使用
var spinePalette = []color.RGBA{
	{R: 156, G: 60, B: 52, A: 255},
	{R: 52, G: 96, B: 132, A: 255},
	{R: 84, G: 120, B: 64, A: 255},
	{R: 148, G: 108, B: 48, A: 255},
	{R: 104, G: 64, B: 124, A: 255},
	{R: 60, G: 116, B: 112, A: 255},
}

// NewApp 创建并初始化画廊应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	if !embedded.IsInitialized() {
		return nil, fmt.Errorf("embedded 资源未初始化")
	}

	// 字体等共享资源
	resourceManager, err := game.NewResourceManager()
	if err != nil {
		return nil, fmt.Errorf("资源初始化失败: %w", err)
	}

	// 偏好设置（gdata 不可用时降级为仅内存）
	gdataManager, err := gdata.Open(gdata.Config{AppName: "kolamshelf"})
	if err != nil {
		log.Printf("[App] gdata 不可用: %v（设置不会持久化）", err)
		gdataManager = nil
	}
	settings, err := game.NewSettingsManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("设置管理器初始化失败: %w", err)
	}

	// 内容目录：缺失或非法时在 LoadCatalog 内部回退到演示目录
	catalog := game.LoadCatalog("assets/config/catalog.yaml", embedded.ReadFile)
	layout := config.LoadShelfLayout("assets/config/layout.yaml", embedded.ReadFile)

	// 书架与书实体
	shelf := gallery.NewShelf(layout)
	for i, cat := range catalog.Categories {
		if _, err := shelf.Register(cat.Key, cat.Title, spinePalette[i%len(spinePalette)]); err != nil {
			return nil, fmt.Errorf("注册分类 %s 失败: %w", cat.Key, err)
		}
	}
	log.Printf("[App] 书架注册 %d 本书", len(catalog.Categories))

	// 能力选择：减少动态效果 → 无动画实现
	// 启动时选定一次，运行期不再探测切换
	reducedMotion := cfg.ReducedMotion || settings.GetSettings().ReducedMotion
	var animator tween.Animator
	var view viewer.Viewer
	if reducedMotion {
		animator = tween.NewImmediate()
		view = viewer.NewInstantViewer(resourceManager.Face(22), resourceManager.Face(15))
		log.Printf("[App] 减少动态效果: 使用无动画实现")
	} else {
		animator = tween.NewRunner()
		view = viewer.NewPageFlipViewer(resourceManager.Face(22), resourceManager.Face(15), 0.35)
	}

	machine := gallery.NewMachine(shelf, animator, view, catalog)

	scene := scenes.NewGalleryScene(shelf, machine, view, catalog, settings, resourceManager)
	sceneManager := game.NewSceneManager()
	sceneManager.SwitchTo(scene)

	// 恢复上次的分类过滤
	if last := settings.GetSettings().LastFilter; last != "" {
		machine.FilterByCategory(last)
		log.Printf("[App] 恢复过滤: %s", last)
	}

	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return &App{
		sceneManager:    sceneManager,
		machine:         machine,
		verbose:         cfg.Verbose,
		pendingCategory: cfg.Category,
	}, nil
}

// Update 更新应用逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 命令行指定的分类在第一帧打开（此时状态机必然处于 Idle）
	if a.pendingCategory != "" {
		a.machine.OpenCategory(a.pendingCategory)
		a.pendingCategory = ""
	}

	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	deltaTime := 1.0 / 60.0
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制应用画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 控制全屏时的缩放质量和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.GameWindowWidth, config.GameWindowHeight
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
