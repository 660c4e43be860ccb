package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"bombarena/internal/config"
	"bombarena/pkg/core"
	"bombarena/pkg/trainer"
)

func main() {
	var (
		population  = flag.Int("pop", trainer.DefaultPopulation, "种群大小，向上取整到 4 的倍数")
		generations = flag.Int("gens", 50, "训练代数")
		out         = flag.String("out", "best.genome", "最优个体输出文件")
		matchFile   = flag.String("match", "", "YAML 对局调参文件")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "随机种子")
		workers     = flag.Int("workers", 0, "并行对局数，0 表示 GOMAXPROCS")
		initGenome  = flag.String("init", "", "从已有个体文件继续训练")
		logLevel    = flag.String("log-level", "info", "日志级别")
	)
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("日志级别: %v", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	match := core.DefaultConfig()
	if *matchFile != "" {
		if err := config.LoadMatchFile(*matchFile, &match); err != nil {
			log.Fatal(err)
		}
	}

	t := trainer.New(trainer.Options{
		Population: *population,
		Match:      match,
		Workers:    *workers,
		Seed:       *seed,
	})
	if *initGenome != "" {
		g, err := trainer.LoadGenome(*initGenome)
		if err != nil {
			log.Fatal(err)
		}
		t.Seed(g)
		log.WithField("file", *initGenome).Info("载入初始个体")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for i := 0; i < *generations; i++ {
		if _, err := t.RunGeneration(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("训练被中断")
				break
			}
			log.Fatalf("训练失败: %v", err)
		}
		if err := trainer.SaveGenome(*out, t.Best()); err != nil {
			log.Fatal(err)
		}
	}

	best := t.Best()
	log.WithFields(log.Fields{"fitness": best.Fitness, "generation": best.Generation, "file": *out}).Info("训练结束")
}
