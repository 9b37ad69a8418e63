// Command server runs the bus boarding API: the booking ledger, the
// boarding sequencer and the HTTP surface in front of them. It is the
// composition root; exactly one ledger instance exists per process and
// everything that needs it receives it here.
package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transitdesk/busboard/internal/boarding"
	"github.com/transitdesk/busboard/internal/config"
	"github.com/transitdesk/busboard/internal/database"
	"github.com/transitdesk/busboard/internal/handler"
	"github.com/transitdesk/busboard/internal/ledger"
	"github.com/transitdesk/busboard/internal/middleware"
	"github.com/transitdesk/busboard/internal/model"
	"github.com/transitdesk/busboard/internal/queue"
	"github.com/transitdesk/busboard/internal/router"
	queue_publisher "github.com/transitdesk/busboard/internal/service"
	"github.com/transitdesk/busboard/internal/store"
)

func main() {
	cfg := config.Load()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response caching disabled")
	}

	// Pick the snapshot store. Redis is the default; MySQL is the
	// durable option. Running without any store keeps the ledger purely
	// in memory, which is fine for development.
	var st store.Store
	switch cfg.StoreDriver {
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		mst := store.NewMySQLStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mst.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("mysql schema: %v", err)
		}
		cancel()
		st = mst
	default:
		if rdb != nil {
			st = store.NewRedisStore(rdb, "")
		} else {
			log.Printf("no snapshot store available; bookings will not survive a restart")
		}
	}

	led := ledger.New(st)
	if st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := led.Hydrate(ctx); err != nil {
			cancel()
			log.Fatalf("ledger: %v", err)
		}
		cancel()
	}

	if cfg.EventsOn {
		// Best-effort change feed: a failed publish is logged inside the
		// publisher and never affects the mutation.
		led.Subscribe(func(ev ledger.Event) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = queue_publisher.PublishBookingChanged(ctx, queue.BookingChangedEvent{
				Action:     ev.Action,
				Booking:    ev.Booking,
				OccurredAt: time.Now().UTC().Format(time.RFC3339),
			})
		})
		go func() {
			if err := queue.StartBookingConsumer(); err != nil {
				log.Printf("booking-consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg))
	router.RegisterAPI(e,
		handler.NewBookingHandler(led),
		handler.NewScheduleHandler(led),
		handler.NewBoardingHandler(led),
		cfg.JWTSecret,
		cache,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s store=%s seats=%d settle=%ds)",
		addr, cfg.Env, cfg.StoreDriver, model.TotalSeats, boarding.SettleDuration)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
