package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ValidationError reports a config field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// minPort and maxPort bound valid TCP port numbers.
const (
	minPort = 1
	maxPort = 65535
)

// ValidatePort checks that the value is a usable TCP port.
func ValidatePort(field string, port int) error {
	if port < minPort || port > maxPort {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", minPort, maxPort),
		}
	}
	return nil
}

// GetConfigPath returns the config path from CONFIG_PATH or the default.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}

// load reads a YAML config file, applies defaults, then applies environment
// variable overrides from `env` struct tags. Env always wins.
//
// A .env file in the working directory is loaded first when present, with
// ENV_FILE overriding the file location.
func load(path string, setDefaults func(*Config)) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("load environment file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if setDefaults != nil {
		setDefaults(&cfg)
	}

	applyEnvToStruct(reflect.ValueOf(&cfg).Elem())
	return &cfg, nil
}

func loadEnvFile() error {
	name := ".env"
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		name = envFile
	}
	if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

func applyEnvToStruct(v reflect.Value) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			applyEnvToStruct(field)
			continue
		}

		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" {
			continue
		}

		envVal := os.Getenv(envTag)
		if envVal == "" {
			continue
		}

		setFieldFromString(field, envVal)
	}
}

func setFieldFromString(field reflect.Value, val string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			field.SetInt(i)
		}

	case reflect.Bool:
		field.SetBool(parseBool(val))

	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			field.SetFloat(f)
		}

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(val, ",")
			for i, p := range parts {
				parts[i] = strings.TrimSpace(p)
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
