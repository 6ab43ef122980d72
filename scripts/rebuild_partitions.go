// 手动重建文章/案例的难度分区
//
// 录入接口会在新增小题时自动追加分区，此脚本用于直接改库或批量导入题目之后，
// 按题目的实际归属重新计算每篇文章的 E/M/H 分区。
//
// 用法: go run scripts/rebuild_partitions.go [-section DILR]

package main

import (
	"context"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/pkg/database"
	"exam_prep_backend/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	sectionFlag := flag.String("section", "", "只处理指定板块（VARC/DILR），为空处理全部")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var section model.Section
	if *sectionFlag != "" {
		s, ok := model.ParseSection(*sectionFlag)
		if !ok {
			log.Fatalf("未知板块: %s", *sectionFlag)
		}
		section = s
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	repo := repository.NewQuestionRepository(db)
	svc := service.NewQuestionService(repo, cfg.Assembly)

	ctx := context.Background()
	ids, err := repo.ListGalleyIDs(ctx, section)
	if err != nil {
		log.Fatalf("查询文章失败: %v", err)
	}

	failed := 0
	for _, id := range ids {
		if _, err := svc.RebuildGalleyPartition(ctx, id); err != nil {
			failed++
			logger.Log.Error("rebuild galley partition failed", zap.Uint("galleyId", id), zap.Error(err))
		}
	}
	log.Printf("分区重建完成: 共 %d 篇, 失败 %d 篇", len(ids), failed)
}
