package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
)

type Config struct {
	// HTTP Server
	Port            string
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	SheetGastos              string
	SheetIngresos            string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Snapshot cache
	SnapshotTTL time.Duration

	// Worker
	ResyncInterval time.Duration

	// Backend selection
	DataBackend string

	// Form defaults
	DefaultUser   string
	CategoriesDir string
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		WriteRateLimit:  getEnvInt("WRITE_RATE_LIMIT", 60),
		WriteRateWindow: getEnvDuration("WRITE_RATE_WINDOW", time.Minute),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/gastos.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gastos"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_records"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		SheetGastos:              getEnv("SHEET_GASTOS", ""),
		SheetIngresos:            getEnv("SHEET_INGRESOS", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SnapshotTTL:    getEnvDuration("SNAPSHOT_TTL", 20*time.Second),
		ResyncInterval: getEnvDuration("RESYNC_INTERVAL", 5*time.Minute),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		DefaultUser:   getEnv("DEFAULT_USER", "JP"),
		CategoriesDir: getEnv("CATEGORIES_DIR", ""),
	}

	return cfg
}

// defaultExpenseCategories mirrors the category list the form suggests
// when no override file is present.
var defaultExpenseCategories = []string{
	"Comida / Supermercado",
	"Transporte / Gasolina",
	"Vivienda / Renta / Hipoteca",
	"Servicios (agua, luz, internet, tel)",
	"Salud / Medicinas",
	"Educación / Cursos / Libros",
	"Entretenimiento / Streaming / Hobbies",
	"Ropa / Compras personales",
	"Viajes / Vacaciones",
	"Mascotas",
	"Suscripciones / Apps",
	"Mantenimiento del hogar",
	"Regalos / Donaciones",
	"Impuestos / Trámites",
	"Tarjetas / Intereses / Comisiones",
	"Otros",
}

var defaultIncomeCategories = []string{
	"Salario",
	"Freelance / Consultoría",
	"Ventas extra / Negocio",
	"Bonos / Aguinaldo",
	"Intereses / Inversiones",
	"Reembolsos",
	"Otros ingresos",
}

// Suggestions returns the category suggestion list for the table. When
// CategoriesDir holds a gastos.txt or ingresos.txt (one category per
// line, blanks skipped) that file wins; otherwise the built-in list is
// returned.
func (c *Config) Suggestions(t core.Table) []string {
	fallback := defaultExpenseCategories
	if t == core.Income {
		fallback = defaultIncomeCategories
	}
	if c.CategoriesDir == "" {
		return fallback
	}

	path := filepath.Join(c.CategoriesDir, t.SheetName()+".txt")
	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	var categories []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			categories = append(categories, line)
		}
	}
	if scanner.Err() != nil || len(categories) == 0 {
		return fallback
	}
	return categories
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if backend is sheets
	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}

		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}

		// Check if credential file exists (if specified)
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate write rate limiting
	if c.WriteRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid write rate limit %d: must be at least 1", c.WriteRateLimit))
	}
	if c.WriteRateWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid write rate window %v: must be at least 1 second", c.WriteRateWindow))
	} else if c.WriteRateWindow > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid write rate window %v: must be at most 1 hour", c.WriteRateWindow))
	}

	// Validate cache and worker timings
	if c.SnapshotTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid snapshot TTL %v: must not be negative", c.SnapshotTTL))
	}
	if c.ResyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid resync interval %v: must be at least 1 second", c.ResyncInterval))
	} else if c.ResyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid resync interval %v: must be at most 24 hours", c.ResyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
