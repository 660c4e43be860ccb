package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"bombarena/internal/config"
	"bombarena/internal/server"
	"bombarena/pkg/core"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg.ConfigureLogging()

	gameServer := server.NewGameServer(cfg)
	if err := gameServer.Listen(); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}

	fields := log.Fields{
		"addr":        gameServer.Addr().String(),
		"proto":       cfg.Proto,
		"tps":         cfg.TPS,
		"max_players": core.MaxPlayers,
		"ai":          cfg.EnableAI,
	}
	if addr := gameServer.HTTPAddr(); addr != nil {
		fields["http"] = addr.String()
	}
	log.WithFields(fields).Info("Bombarena 服务器正在运行，按 Ctrl+C 停止")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	gameServer.Shutdown()
	log.Info("服务器已关闭，再见！")
}
