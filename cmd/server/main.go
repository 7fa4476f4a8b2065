package main

import (
	"log"

	"github.com/suPer8Hu/shopchat/internal/config"
	"github.com/suPer8Hu/shopchat/internal/db"
	"github.com/suPer8Hu/shopchat/internal/httpapi"
	"github.com/suPer8Hu/shopchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/shopchat/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.Migrate(gdb)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit: %v", err)
	}
	defer rabbit.Close()

	r, err := httpapi.NewRouter(gdb, cfg, rds, rabbit)
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	log.Printf("server listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
