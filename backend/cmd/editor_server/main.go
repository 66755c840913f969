package main

import (
	"context"
	"fmt"
	"log"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"blockEditor/backend/config"
	"blockEditor/backend/internal/autosave"
	"blockEditor/backend/internal/cache"
	"blockEditor/backend/internal/collab"
	"blockEditor/backend/internal/httpapi"
	"blockEditor/backend/internal/httpapi/handlers"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/store"
	"blockEditor/backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}
	log.Printf("config: port=%d mysql=%s redis=%v kafka=%v", cfg.Running.Port, cfg.Mysql.Driver, cfg.Redis.Addrs, cfg.Kafka.Brokers)

	reg, err := schema.New(cfg.SchemaOptions())
	if err != nil {
		log.Fatalf("init schema failed: %v", err)
	}

	rdb := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	if err = rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	db, err := store.OpenSnapshotDB(cfg.Mysql.Driver, cfg.Mysql.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	snapshotStore := store.NewSnapshotStore(db)
	if err := snapshotStore.Migrate(context.Background()); err != nil {
		log.Fatalf("migrate snapshots failed: %v", err)
	}

	// 文档元数据只在 MySQL 下启用
	var documentStore collab.DocumentStore
	if cfg.Mysql.Driver == "" || cfg.Mysql.Driver == "mysql" {
		gdb, err := store.InitMySQL(cfg.Mysql.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		ds := store.NewDocumentStore(gdb)
		if err := ds.Migrate(); err != nil {
			log.Fatalf("migrate documents failed: %v", err)
		}
		documentStore = ds
	}

	// === 初始化 Kafka Producer ===
	kafkaCfg := sarama.NewConfig()
	// SyncProducer 必须开启 Return.Successes
	kafkaCfg.Producer.Return.Successes = true
	kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
	if err != nil {
		log.Fatalf("Failed to connect kafka: %v", err)
	}
	defer producer.Close()

	// Kafka 本地队列 + worker 重试发送
	kafkaDispatcher := autosave.NewKafkaDispatcher(
		producer,
		cfg.Kafka.Topic,
		autosave.NewSemaphoreControl(autosave.DefaultSemaphoreSize),
		cfg.Kafka.Dispatcher,
	)
	defer kafkaDispatcher.Close()

	draftCache := cache.NewDraftCache(rdb, cfg.Redis.DraftTTL)
	svc := collab.NewService(reg, snapshotStore, documentStore, draftCache)
	manager := ws.NewManager(
		svc,
		cfg.Editor.Config,
		cfg.Autosave,
		kafkaDispatcher,
		cache.NewRedisPresence(rdb),
		autosave.NewSemaphoreControl(cfg.Running.MaxConcurrent),
	)

	r := httpapi.NewRouter(cfg.Auth.Secret, handlers.NewDocumentHandler(svc), manager)
	port := cfg.Running.Port
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
