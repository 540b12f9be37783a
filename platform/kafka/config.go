package kafka

// Config содержит конфигурацию для подключения к Kafka
type Config struct {
	// Enabled включает публикацию событий. При false сервисы используют no-op publisher.
	Enabled bool `env:"KAFKA_ENABLED" envDefault:"false"`
	// Brokers - список брокеров Kafka:
	//   - локальная разработка (go run): localhost:19092
	//   - запуск в Docker: kafka:9092
	// Можно указать несколько брокеров через запятую: "broker1:9092,broker2:9092"
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// Topic - топик событий жизненного цикла транзакций
	Topic string `env:"KAFKA_TRANSBANK_EVENTS_TOPIC" envDefault:"transbank.transaction.events"`
}

// DefaultConfig возвращает конфигурацию с дефолтными значениями для локальной разработки.
func DefaultConfig() Config {
	return Config{
		Brokers: []string{"localhost:19092"},
		Topic:   "transbank.transaction.events",
	}
}
