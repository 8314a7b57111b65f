package config

import (
	"os"
	"strconv"
	"strings"
)

// Config captures process-level configuration so main stays lean. Values come
// from FOP_* environment variables with development defaults.
type Config struct {
	Addr        string
	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	// Ledger policy.
	Currency            string
	DueDateOffsetDays   int
	GracePeriodDays     int
	MonthlyInterestRate string

	// Permit issuance eligibility thresholds: an operator is blocked when
	// total overdue exceeds the amount or the overdue invoice count exceeds
	// the count. Defaults of zero block on any overdue debt.
	MaxOverdueAmount   string
	MaxOverdueInvoices int

	// Job scheduling: fixed UTC offset of the regulator's local clock and the
	// local run times of the two daily jobs.
	UTCOffsetHours  int
	ExpiryJobHour   int
	OverdueJobHour  int
	JobRetryBackoff int // seconds
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envStr("FOP_ADDR", ":8080"),
		PostgresDSN: os.Getenv("FOP_POSTGRES_DSN"),
		RedisURL:    os.Getenv("FOP_REDIS_URL"),

		KafkaBrokers: envList("FOP_KAFKA_BROKERS"),
		KafkaTopic:   envStr("FOP_KAFKA_TOPIC", "fop.domain-events"),

		Currency:            envStr("FOP_CURRENCY", "USD"),
		DueDateOffsetDays:   envInt("FOP_DUE_DATE_OFFSET_DAYS", 30),
		GracePeriodDays:     envInt("FOP_GRACE_PERIOD_DAYS", 30),
		MonthlyInterestRate: envStr("FOP_MONTHLY_INTEREST_RATE", "0.015"),

		MaxOverdueAmount:   envStr("FOP_MAX_OVERDUE_AMOUNT", "0"),
		MaxOverdueInvoices: envInt("FOP_MAX_OVERDUE_INVOICES", 0),

		UTCOffsetHours:  envInt("FOP_UTC_OFFSET_HOURS", -4),
		ExpiryJobHour:   envInt("FOP_EXPIRY_JOB_HOUR", 0),
		OverdueJobHour:  envInt("FOP_OVERDUE_JOB_HOUR", 1),
		JobRetryBackoff: envInt("FOP_JOB_RETRY_BACKOFF_SECONDS", 60),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
