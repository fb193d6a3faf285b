package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/kolamshelf/pkg/app"
	"github.com/decker502/kolamshelf/pkg/config"
	"github.com/decker502/kolamshelf/pkg/embedded"
)

func main() {
	verbose := flag.Bool("verbose", false, "启用详细日志输出")
	category := flag.String("category", "", "启动后直接打开的分类键")
	reducedMotion := flag.Bool("reduced-motion", false, "禁用所有过渡动画")
	flag.Parse()

	// 初始化嵌入资源（assetsFS 在 embed.go 中声明）
	embedded.Init(assetsFS)

	galleryApp, err := app.NewApp(app.Config{
		Verbose:       *verbose,
		Category:      *category,
		ReducedMotion: *reducedMotion,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
	ebiten.SetWindowTitle("Kolam Shelf")

	// 渲染环境不可用（无 GPU / 无显示）属于致命错误：
	// 不尝试降级模式，提示用户排查后重试
	if err := ebiten.RunGame(galleryApp); err != nil {
		fmt.Fprintf(os.Stderr, "渲染初始化失败: %v\n", err)
		fmt.Fprintln(os.Stderr, "请检查显卡驱动或显示环境后重新运行。")
		os.Exit(1)
	}
}
