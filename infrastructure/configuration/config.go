package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"syllabus-crawler/infrastructure/logger"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	YouTube     YouTube     `json:"youtube"`
	Cache       Cache       `json:"cache"`
	Scraper     Scraper     `json:"scraper"`
	Sink        Sink        `json:"sink"`
}

type App struct {
	Port        int    `json:"port"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"string"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

type YouTube struct {
	APIKey            string        `json:"apiKey"`
	ClientID          string        `json:"clientId"`
	ClientSecret      string        `json:"clientSecret"`
	RedirectURI       string        `json:"redirectURI"`
	Scopes            []string      `json:"scopes"`
	TokenFile         string        `json:"tokenFile"`
	PageSize          int64         `json:"pageSize"`
	RequestTimeout    time.Duration `json:"requestTimeout"`
	RequestsPerSecond float64       `json:"requestsPerSecond"`
}

// Cache selects the durable store behind the response cache
type Cache struct {
	Driver string        `json:"driver"`
	Dir    string        `json:"dir"`
	TTL    time.Duration `json:"ttl"`
}

type Scraper struct {
	ChannelsFile    string            `json:"channelsFile"`
	DataDir         string            `json:"dataDir"`
	SubjectAliases  map[string]string `json:"subjectAliases"`
	AliasBelowGrade int               `json:"aliasBelowGrade"`
	ItemMaxResults  int               `json:"itemMaxResults"`
	JobTimeout      time.Duration     `json:"jobTimeout"`
}

type Sink struct {
	Drivers         []string `json:"drivers"`
	PubsubTopic     string   `json:"pubsubTopic"`
	ServiceBusQueue string   `json:"serviceBusQueue"`
	MongoCollection string   `json:"mongoCollection"`
	CsvFile         string   `json:"csvFile"`
}

const (
	SinkDriverLog        = "log"
	SinkDriverPubsub     = "pubsub"
	SinkDriverServiceBus = "servicebus"
	SinkDriverMongo      = "mongo"
	SinkDriverCsv        = "csv"
)

const (
	CacheDriverFile     = "file"
	CacheDriverPostgres = "postgres"
	CacheDriverMssql    = "mssql"
	CacheDriverRedis    = "redis"
	CacheDriverMemory   = "memory"
)

var C Config

func init() {
	// env files must be exported before viper and the env fallbacks read them
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	applyDefaults(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Azure SQL in production
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
}

func initApp(C *Config) {
	// env overrides config: APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
}

func applyDefaults(C *Config) {
	if C.Cache.Driver == "" {
		C.Cache.Driver = getEnv("CACHE_DRIVER", CacheDriverFile)
	}
	if C.Cache.Dir == "" {
		C.Cache.Dir = "tmpstor"
	}
	if C.Cache.TTL == 0 {
		C.Cache.TTL = 24 * time.Hour
	}

	if C.Scraper.ChannelsFile == "" {
		C.Scraper.ChannelsFile = "data/core/yt_channels.yaml"
	}
	if C.Scraper.DataDir == "" {
		C.Scraper.DataDir = "data"
	}
	if C.Scraper.SubjectAliases == nil {
		C.Scraper.SubjectAliases = map[string]string{
			"biology":   "science",
			"physics":   "science",
			"chemistry": "science",
		}
	}
	if C.Scraper.AliasBelowGrade == 0 {
		C.Scraper.AliasBelowGrade = 9
	}
	if C.Scraper.ItemMaxResults == 0 {
		C.Scraper.ItemMaxResults = 5
	}
	if C.Scraper.JobTimeout == 0 {
		C.Scraper.JobTimeout = 10 * time.Minute
	}

	if C.YouTube.TokenFile == "" {
		C.YouTube.TokenFile = "token.json"
	}
	if C.YouTube.PageSize == 0 {
		C.YouTube.PageSize = 50
	}
	if C.YouTube.RequestTimeout == 0 {
		C.YouTube.RequestTimeout = 30 * time.Second
	}

	if len(C.Sink.Drivers) == 0 {
		C.Sink.Drivers = []string{SinkDriverLog}
	}
	if C.Sink.MongoCollection == "" {
		C.Sink.MongoCollection = "video_records"
	}
	if C.Sink.CsvFile == "" {
		C.Sink.CsvFile = "video_records.csv"
	}
}

// Validate rejects settings the crawler cannot run with
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case CacheDriverFile, CacheDriverPostgres, CacheDriverMssql, CacheDriverRedis, CacheDriverMemory:
	default:
		return errors.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if c.YouTube.PageSize < 1 || c.YouTube.PageSize > 50 {
		return errors.Errorf("youtube page size %d out of range 1..50", c.YouTube.PageSize)
	}
	if c.YouTube.RequestTimeout <= 0 {
		return errors.New("youtube request timeout must be positive")
	}
	if c.YouTube.RequestsPerSecond < 0 {
		return errors.New("youtube requests per second must not be negative")
	}
	if c.Scraper.ItemMaxResults < 1 {
		return errors.New("scraper item max results must be positive")
	}
	if c.Scraper.JobTimeout <= 0 {
		return errors.New("scraper job timeout must be positive")
	}
	for _, d := range c.Sink.Drivers {
		switch d {
		case SinkDriverLog, SinkDriverPubsub, SinkDriverServiceBus, SinkDriverMongo, SinkDriverCsv:
		default:
			return errors.Errorf("unknown sink driver %q", d)
		}
	}
	return nil
}
