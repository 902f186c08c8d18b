package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/cache"
	youtubeclient "syllabus-crawler/infrastructure/clients/youtube"
	"syllabus-crawler/infrastructure/configuration"
	"syllabus-crawler/infrastructure/filecache"
	"syllabus-crawler/infrastructure/filecsv"
	"syllabus-crawler/infrastructure/logger"
	"syllabus-crawler/infrastructure/persistence"
	"syllabus-crawler/infrastructure/pubsub"
	"syllabus-crawler/infrastructure/realtime"
	"syllabus-crawler/infrastructure/servicebus"
	"syllabus-crawler/infrastructure/syllabus"
	httpHandler "syllabus-crawler/interfaces/http"
	"syllabus-crawler/server"
	"syllabus-crawler/usecase"
)

var httpServer *http.Server

type cachePurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	chapterPath := flag.String("chapter", "", "scrape one chapter, e.g. 10/cbse/biology/1, print the records and exit")
	topicKey := flag.String("topic", "", "limit -chapter to one topic")
	refresh := flag.Bool("refresh", false, "drop cached playlist listings of every channel before scraping")
	flag.Parse()

	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := configuration.C
	if err := cfg.Validate(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Invalid configuration")
		os.Exit(2)
	}

	store, closeStore, err := newResponseStore(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("driver", cfg.Cache.Driver).Error("Response store initialization failed")
		os.Exit(2)
	}
	defer closeStore()
	responseCache := cache.NewResponseCache(store, cfg.Cache.TTL)

	youtubeConfig, err := configuration.GetYouTubeConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("YouTube configuration not found")
		os.Exit(2)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"hasAccessToken":  youtubeConfig.AccessToken != "",
		"hasRefreshToken": youtubeConfig.RefreshToken != "",
		"hasAPIKey":       youtubeConfig.APIKey != "",
		"cacheDriver":     cfg.Cache.Driver,
		"cacheTTL":        cfg.Cache.TTL.String(),
	}).Info("Loaded YouTube configuration state")

	youtubeClient, err := youtubeclient.NewYouTubeClient(ctx, &youtubeclient.Config{
		ClientID:          youtubeConfig.ClientID,
		ClientSecret:      youtubeConfig.ClientSecret,
		RedirectURL:       youtubeConfig.RedirectURL,
		AccessToken:       youtubeConfig.AccessToken,
		RefreshToken:      youtubeConfig.RefreshToken,
		APIKey:            youtubeConfig.APIKey,
		TokenFile:         youtubeConfig.TokenFile,
		Scopes:            youtubeConfig.Scopes,
		PageSize:          youtubeConfig.PageSize,
		RequestTimeout:    youtubeConfig.RequestTimeout,
		RequestsPerSecond: youtubeConfig.RequestsPerSecond,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to initialize YouTube client")
		os.Exit(2)
	}
	gateway := persistence.NewYouTubeRepository(youtubeClient, responseCache)

	loader := syllabus.NewLoader(cfg.Scraper.DataDir, cfg.Scraper.ChannelsFile)
	channels, err := loader.LoadChannels()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot load content channels")
		os.Exit(2)
	}

	sink, closeSinks, err := newVideoSink(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Video sink initialization failed")
		os.Exit(2)
	}
	defer closeSinks()

	scraperConfig := usecase.ScraperConfig{
		SubjectAliases:  cfg.Scraper.SubjectAliases,
		AliasBelowGrade: cfg.Scraper.AliasBelowGrade,
		ItemMaxResults:  cfg.Scraper.ItemMaxResults,
	}
	newPipeline := func(s repository.IVideoSink) usecase.IScraperUseCase {
		return usecase.NewScraperUseCase(gateway, s, channels, scraperConfig)
	}

	if *refresh {
		for _, ch := range channels {
			if err := responseCache.Invalidate(ctx, model.KindChannelPlaylists, ch.ChannelID); err != nil {
				logger.GetLogger().WithField("error", err).WithField("channel", ch.Name).Warn("Cache invalidation failed")
			}
		}
	}

	if *chapterPath != "" {
		if err := runOnce(ctx, loader, newPipeline(sink), *chapterPath, *topicKey, cfg.Scraper.JobTimeout); err != nil {
			logger.GetLogger().WithField("error", err).WithField("kind", apperror.KindOf(err)).Error("Scrape failed")
			os.Exit(1)
		}
		return
	}

	serve(ctx, cancel, cfg, loader, newPipeline, sink, store)
}

// runOnce scrapes one chapter in the foreground and writes the result as JSON
func runOnce(ctx context.Context, loader repository.ISyllabus, pipeline usecase.IScraperUseCase, chapterPath, topic string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chapter, err := loader.LoadChapter(chapterPath)
	if err != nil {
		return err
	}

	var out interface{}
	if topic == "" {
		out, err = pipeline.ScrapeChapter(ctx, chapter)
	} else {
		sctx, ok := chapter.ScrapeContext(topic)
		if !ok {
			return apperror.NotFound("main.runOnce", nil, "topic "+topic+" not found in "+chapterPath)
		}
		out, err = pipeline.ScrapeTopic(ctx, sctx)
		pipeline.ResetSession()
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func serve(ctx context.Context, cancel context.CancelFunc, cfg configuration.Config, loader repository.ISyllabus, newPipeline usecase.PipelineFactory, sink repository.IVideoSink, store repository.IResponseStore) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	hub := realtime.NewScrapeHub()
	jobs := usecase.NewScrapeJobUseCase(ctx, loader, newPipeline, sink, hub, cfg.Scraper.JobTimeout)
	router := server.InitiateRouter(httpHandler.NewScrapeHandler(jobs, hub))

	// Expired rows are never served, only dropped here to bound table size
	if purger, ok := store.(cachePurger); ok && cfg.Cache.TTL > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					n, err := purger.PurgeExpired(ctx, time.Now().Add(-cfg.Cache.TTL))
					if err != nil {
						logger.GetLogger().WithField("error", err).Warn("Purging expired responses failed")
						continue
					}
					logger.GetLogger().WithField("rows", n).Debug("Purged expired responses")
				}
			}
		})
	}

	app := cfg.App
	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", app.Port),
			Handler: router,
			// streams stay open for the whole job
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	jobs.Wait()

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// newResponseStore opens the durable layer behind the response cache
func newResponseStore(ctx context.Context, cfg configuration.Config) (repository.IResponseStore, func(), error) {
	switch cfg.Cache.Driver {
	case configuration.CacheDriverFile:
		store, err := filecache.NewFileStore(cfg.Cache.Dir)
		return store, noopClose, err
	case configuration.CacheDriverPostgres:
		db, err := persistence.NewPostgreSQLDB(cfg.Database.Psql)
		if err != nil {
			return nil, noopClose, err
		}
		if err := persistence.EnsureResponseCacheSchema(db); err != nil {
			_ = db.Close()
			return nil, noopClose, err
		}
		return persistence.NewYouTubeCacheRepository(db), func() { _ = db.Close() }, nil
	case configuration.CacheDriverMssql:
		db, err := persistence.NewMSSQLDB(cfg.Database.Mssql)
		if err != nil {
			return nil, noopClose, err
		}
		if err := persistence.EnsureResponseCacheSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, noopClose, err
		}
		return persistence.NewYouTubeCacheRepositoryMSSQL(db), func() { _ = db.Close() }, nil
	case configuration.CacheDriverRedis:
		rdb := cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
			cfg.RedisClient.Username,
			cfg.RedisClient.Password,
		)
		return cache.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	case configuration.CacheDriverMemory:
		return nil, noopClose, nil
	}
	return nil, noopClose, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
}

// newVideoSink fans records out to every configured driver
func newVideoSink(ctx context.Context, cfg configuration.Config) (repository.IVideoSink, func(), error) {
	sinks := make([]repository.IVideoSink, 0, len(cfg.Sink.Drivers))
	closers := make([]func(), 0)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, driver := range cfg.Sink.Drivers {
		switch driver {
		case configuration.SinkDriverLog:
			sinks = append(sinks, usecase.NewLogSink())
		case configuration.SinkDriverPubsub:
			client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
			if err != nil {
				closeAll()
				return nil, noopClose, err
			}
			publisher := pubsub.NewVideoPublisher(client, cfg.Sink.PubsubTopic)
			sinks = append(sinks, publisher)
			closers = append(closers, func() {
				publisher.Stop()
				_ = client.Close()
			})
		case configuration.SinkDriverServiceBus:
			client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
			if err != nil {
				closeAll()
				return nil, noopClose, err
			}
			publisher, err := servicebus.NewVideoPublisher(client, cfg.Sink.ServiceBusQueue)
			if err != nil {
				_ = client.Close(ctx)
				closeAll()
				return nil, noopClose, err
			}
			sinks = append(sinks, publisher)
			closers = append(closers, func() {
				_ = publisher.Close(context.Background())
				_ = client.Close(context.Background())
			})
		case configuration.SinkDriverMongo:
			mongoCfg := cfg.Database.Mongo
			client, err := persistence.NewMongoDb(mongoCfg.Host, mongoCfg.Port, mongoCfg.User, mongoCfg.Password, mongoCfg.Name)
			if err != nil {
				closeAll()
				return nil, noopClose, err
			}
			if err := client.Ping(ctx, nil); err != nil {
				logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed")
			}
			sinks = append(sinks, persistence.NewVideoRecordRepositoryMongo(client, mongoCfg.Name, cfg.Sink.MongoCollection))
			closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		case configuration.SinkDriverCsv:
			writer, err := filecsv.NewVideoRecordWriter(cfg.Sink.CsvFile)
			if err != nil {
				closeAll()
				return nil, noopClose, err
			}
			sinks = append(sinks, writer)
			closers = append(closers, func() { _ = writer.Close() })
		default:
			closeAll()
			return nil, noopClose, fmt.Errorf("unknown sink driver %q", driver)
		}
	}
	return usecase.NewFanOutSink(sinks...), closeAll, nil
}

func noopClose() {}
