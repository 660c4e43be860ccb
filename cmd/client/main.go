package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"bombarena/internal/client"
)

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:8080", "服务器地址，ws 协议下为 HTTP 地址")
		proto    = flag.String("proto", "tcp", "传输协议 tcp|kcp|ws")
		name     = flag.String("name", "bot", "玩家名")
		roomID   = flag.String("room", "", "加入的房间 ID，为空则创建房间")
		roomName = flag.String("room-name", "", "创建房间时使用的名字")
		launch   = flag.Bool("launch", true, "作为房主时立即开局")
		bomb     = flag.Float64("bomb", 0.2, "邻格有箱子时放炸弹的概率")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "随机种子")
		logLevel = flag.String("log-level", "info", "日志级别")
	)
	flag.Parse()

	if level, err := log.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *proto, *addr)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	bot := client.NewBot(c, client.BotOptions{
		Name:       *name,
		RoomID:     *roomID,
		RoomName:   *roomName,
		Launch:     *launch,
		BombChance: *bomb,
		Seed:       *seed,
	})
	out, err := bot.Run(ctx)
	if err != nil {
		log.Errorf("客户端退出: %v", err)
		return
	}

	fmt.Fprintln(os.Stdout, out.Final.String())
	log.WithFields(log.Fields{
		"room":   out.RoomID,
		"slot":   out.Slot,
		"winner": out.Winner,
		"scores": out.Scores,
	}).Info("对局结束")
}
