package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Schedule ScheduleConfig
	Subjects SubjectsConfig
	Matching MatchingConfig
	Accounts AccountsConfig
	Mail     MailConfig
	Sweep    SweepConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig drives the weekly slot grid. A day with zero periods is
// not in session and produces no slots.
type ScheduleConfig struct {
	// DayPeriods holds the period count for Monday..Sunday, in order.
	DayPeriods  [7]int
	PeriodNames []string
}

// SubjectCategory is one named group of subjects in the taxonomy.
type SubjectCategory struct {
	Name     string
	Subjects []string
}

// SubjectsConfig is the ordered subject taxonomy tutors register against.
type SubjectsConfig struct {
	Categories []SubjectCategory
}

// All returns every subject name across categories, in taxonomy order.
func (s SubjectsConfig) All() []string {
	var out []string
	for _, cat := range s.Categories {
		out = append(out, cat.Subjects...)
	}
	return out
}

// Contains reports whether name is part of the taxonomy.
func (s SubjectsConfig) Contains(name string) bool {
	for _, cat := range s.Categories {
		for _, subj := range cat.Subjects {
			if subj == name {
				return true
			}
		}
	}
	return false
}

// MatchingConfig governs the tutor-matching flow.
type MatchingConfig struct {
	DisplayTutorName   bool
	ProposalTTL        time.Duration
	TutoringHead       string
	TutoringHeadEmails []string
}

// AccountsConfig carries the role promotion passwords and reset behaviour.
type AccountsConfig struct {
	TutorPassword      string
	AdminPassword      string
	AllowPasswordReset bool
	ResetCodeTTL       time.Duration
}

// MailConfig selects and configures the outbound mail backend.
type MailConfig struct {
	Backend     string // "console" or "sendgrid"
	SendgridKey string
	FromName    string
	FromAddress string
	ServiceName string
}

// SweepConfig controls the daily expiration sweep job.
type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
	Workers  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"), ",")}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = ScheduleConfig{
		DayPeriods: [7]int{
			v.GetInt("MONDAY_PERIODS"),
			v.GetInt("TUESDAY_PERIODS"),
			v.GetInt("WEDNESDAY_PERIODS"),
			v.GetInt("THURSDAY_PERIODS"),
			v.GetInt("FRIDAY_PERIODS"),
			v.GetInt("SATURDAY_PERIODS"),
			v.GetInt("SUNDAY_PERIODS"),
		},
		PeriodNames: splitAndTrim(v.GetString("PERIOD_NAMES"), ","),
	}

	cfg.Subjects = SubjectsConfig{Categories: parseTaxonomy(v.GetString("SUBJECT_TAXONOMY"))}

	cfg.Matching = MatchingConfig{
		DisplayTutorName:   v.GetBool("DISPLAY_TUTOR_NAME"),
		ProposalTTL:        parseDuration(v.GetString("MATCH_PROPOSAL_TTL"), 30*time.Minute),
		TutoringHead:       v.GetString("TUTORING_HEAD"),
		TutoringHeadEmails: splitAndTrim(v.GetString("TUTORING_HEAD_EMAILS"), ","),
	}

	cfg.Accounts = AccountsConfig{
		TutorPassword:      v.GetString("TUTOR_PASSWORD"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		AllowPasswordReset: v.GetBool("ALLOW_PASSWORD_RESET"),
		ResetCodeTTL:       parseDuration(v.GetString("RESET_CODE_TTL"), 5*time.Minute),
	}

	cfg.Mail = MailConfig{
		Backend:     v.GetString("MAIL_BACKEND"),
		SendgridKey: v.GetString("SENDGRID_API_KEY"),
		FromName:    v.GetString("MAIL_FROM_NAME"),
		FromAddress: v.GetString("MAIL_FROM_ADDRESS"),
		ServiceName: v.GetString("TUTORING_SERVICE_NAME"),
	}

	cfg.Sweep = SweepConfig{
		Enabled:  v.GetBool("ENABLE_SWEEP"),
		Interval: parseDuration(v.GetString("SWEEP_INTERVAL"), 24*time.Hour),
		Workers:  v.GetInt("SWEEP_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutoring")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MONDAY_PERIODS", 8)
	v.SetDefault("TUESDAY_PERIODS", 8)
	v.SetDefault("WEDNESDAY_PERIODS", 4)
	v.SetDefault("THURSDAY_PERIODS", 4)
	v.SetDefault("FRIDAY_PERIODS", 8)
	v.SetDefault("SATURDAY_PERIODS", 0)
	v.SetDefault("SUNDAY_PERIODS", 0)
	v.SetDefault("PERIOD_NAMES", "1st,2nd,3rd,4th,5th,6th,7th,8th,9th,10th,11th,12th")

	v.SetDefault("SUBJECT_TAXONOMY",
		"math:Algebra 1|Geometry|Algebra 2|PreCalculus|Calculus|Statistics|Computer Science;"+
			"english:English 9|English 10|English 11|English 12|Essay Review;"+
			"language:Spanish|French|Chinese|Latin;"+
			"social studies:World Civ 1|World Civ 2|US History|Government|Civics|Law;"+
			"science:IPS|Biology|Chemistry|Physics|Psychology|Sociology")

	v.SetDefault("DISPLAY_TUTOR_NAME", true)
	v.SetDefault("MATCH_PROPOSAL_TTL", "30m")
	v.SetDefault("TUTORING_HEAD", "")
	v.SetDefault("TUTORING_HEAD_EMAILS", "")

	v.SetDefault("TUTOR_PASSWORD", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ALLOW_PASSWORD_RESET", true)
	v.SetDefault("RESET_CODE_TTL", "5m")

	v.SetDefault("MAIL_BACKEND", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Tutoring")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@localhost")
	v.SetDefault("TUTORING_SERVICE_NAME", "Peer Tutoring")

	v.SetDefault("ENABLE_SWEEP", true)
	v.SetDefault("SWEEP_INTERVAL", "24h")
	v.SetDefault("SWEEP_WORKERS", 1)
}

// parseTaxonomy reads "category:Subj|Subj;category:Subj" into ordered categories.
func parseTaxonomy(raw string) []SubjectCategory {
	if raw == "" {
		return nil
	}

	var categories []SubjectCategory
	for _, chunk := range strings.Split(raw, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		name, list, found := strings.Cut(chunk, ":")
		if !found {
			continue
		}
		cat := SubjectCategory{Name: strings.TrimSpace(name)}
		for _, subj := range strings.Split(list, "|") {
			subj = strings.TrimSpace(subj)
			if subj != "" {
				cat.Subjects = append(cat.Subjects, subj)
			}
		}
		if len(cat.Subjects) > 0 {
			categories = append(categories, cat)
		}
	}
	return categories
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw, sep string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
