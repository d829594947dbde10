package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUSER  string `json:"dbuser"`
	DBPass  string `json:"dbpass"`

	// IP reputation provider (ip2location.io style API).
	IPLookupAPIKey   string `json:"iplookupapikey"`
	IPLookupEndpoint string `json:"iplookupendpoint"`
	// Optional local GeoIP2/GeoLite2 .mmdb consulted when the remote provider is unavailable.
	GeoIPDBPath string `json:"geoipdbpath"`

	// Notification channels.
	SMTPHost         string `json:"smtphost"`
	SMTPPort         uint16 `json:"smtpport"`
	ServiceEmail     string `json:"serviceemail"`
	ServiceEmailPass string `json:"serviceemailpass"`
	AdminEmail       string `json:"adminemail"`
	TelegramBotToken string `json:"telegrambottoken"`
	TelegramChatID   string `json:"telegramchatid"`

	// Redis backs the session store and the rate limiter.
	RedisAddr string `json:"redisaddr"`
	RedisPass string `json:"redispass"`
	RedisDB   int    `json:"redisdb"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// Load environment variables from a .env file. A missing file is fine:
		// tests and containerized deployments supply the environment directly.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
		smtpPort, _ := strconv.ParseUint(os.Getenv("SMTP_PORT"), 10, 16)
		if smtpPort == 0 {
			smtpPort = 587
		}
		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

		// Initialize the Config struct with values from environment variables.
		config = &Config{
			AppName: os.Getenv("APPNAME"),
			AppEnv:  os.Getenv("APPENV"),
			AppPort: uint16(appPort),
			GinMode: os.Getenv("GINMODE"),
			DBHost:  os.Getenv("DBHOST"),
			DBPort:  uint16(dbPort),
			DBName:  os.Getenv("DBNAME"),
			DBUSER:  os.Getenv("DBUSER"),
			DBPass:  os.Getenv("DBPASS"),

			IPLookupAPIKey:   os.Getenv("IP2LOCATION_API_KEY"),
			IPLookupEndpoint: os.Getenv("IP2LOCATION_ENDPOINT"),
			GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),

			SMTPHost:         os.Getenv("SMTP_HOST"),
			SMTPPort:         uint16(smtpPort),
			ServiceEmail:     os.Getenv("SERVICE_EMAIL"),
			ServiceEmailPass: os.Getenv("SERVICE_EMAIL_PASSWORD"),
			AdminEmail:       os.Getenv("ADMIN_EMAIL"),
			TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

			RedisAddr: redisAddr,
			RedisPass: os.Getenv("REDIS_PASS"),
			RedisDB:   redisDB,
		}
	})
	return config
}

// ResetConfigForTest clears the singleton so tests can reload a fresh environment.
// This should only be used in tests.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()
	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	// Open a database connection.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
