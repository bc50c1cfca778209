package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Env holds every secret and account identifier the pipeline needs,
// bound once from the process environment at startup. Immutable after
// LoadEnv; components receive it by reference, never via globals.
type Env struct {
	// Object storage (S3-compatible)
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Endpoint        string
	R2BucketName      string
	R2PublicURL       string

	// Content sheet
	AirtableToken  string
	AirtableBaseID string
	AsfaT1TableID  string
	AsfaT2TableID  string
	MafaT1TableID  string
	MafaT2TableID  string

	// Publisher
	IGToken      string
	IGUserID     string
	IGMafaUserID string

	// Operator notifications (optional)
	TelegramBotToken string
	TelegramChatID   string

	// development | production | test
	AppEnv string
}

var requiredVars = []string{
	"R2_ACCESS_KEY_ID",
	"R2_SECRET_ACCESS_KEY",
	"R2_ENDPOINT",
	"R2_BUCKET_NAME",
	"R2_PUBLIC_URL",
	"AIRTABLE_TOKEN",
	"IG_TOKEN",
	"IG_USER_ID",
}

// LoadEnv binds environment variables into an Env. Call godotenv.Load
// first if a .env file should participate. Returns an error naming
// every missing required variable at once.
func LoadEnv() (*Env, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("AIRTABLE_BASE_ID", "appEVPrTtF1XyAQ4h")
	v.SetDefault("AIRTABLE_ASFA_T1_TABLE_ID", "tblC7lVTkY0ftzNoS")
	v.SetDefault("AIRTABLE_ASFA_T2_TABLE_ID", "tblkTYpwfm3aLzKER")
	v.SetDefault("AIRTABLE_MAFA_T1_TABLE_ID", "tbl5Pry2tfD6ducvM")
	v.SetDefault("AIRTABLE_MAFA_T2_TABLE_ID", "tblWyzOMj8VeCD1Qi")
	v.SetDefault("IG_MAFA_USER_ID", "930658543468811")
	v.SetDefault("APP_ENV", "development")

	var missing []string
	for _, name := range requiredVars {
		if v.GetString(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	env := &Env{
		R2AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
		R2Endpoint:        v.GetString("R2_ENDPOINT"),
		R2BucketName:      v.GetString("R2_BUCKET_NAME"),
		R2PublicURL:       v.GetString("R2_PUBLIC_URL"),
		AirtableToken:     v.GetString("AIRTABLE_TOKEN"),
		AirtableBaseID:    v.GetString("AIRTABLE_BASE_ID"),
		AsfaT1TableID:     v.GetString("AIRTABLE_ASFA_T1_TABLE_ID"),
		AsfaT2TableID:     v.GetString("AIRTABLE_ASFA_T2_TABLE_ID"),
		MafaT1TableID:     v.GetString("AIRTABLE_MAFA_T1_TABLE_ID"),
		MafaT2TableID:     v.GetString("AIRTABLE_MAFA_T2_TABLE_ID"),
		IGToken:           v.GetString("IG_TOKEN"),
		IGUserID:          v.GetString("IG_USER_ID"),
		IGMafaUserID:      v.GetString("IG_MAFA_USER_ID"),
		TelegramBotToken:  v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    v.GetString("TELEGRAM_CHAT_ID"),
		AppEnv:            v.GetString("APP_ENV"),
	}

	switch env.AppEnv {
	case "development", "production", "test":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q: want development, production or test", env.AppEnv)
	}

	return env, nil
}
