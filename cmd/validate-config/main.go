package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/macro-diary/internal/config"
)

func main() {
	fmt.Println("🔍 Checking configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Configuration is valid!")
	fmt.Printf("📋 Details:\n")
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - HTTP Address: %s\n", orUnset(cfg.HTTPAddr))
	fmt.Printf("  - Gemini API Key: %s (%s)\n", maskToken(cfg.GeminiAPIKey), cfg.GeminiModel)
	fmt.Printf("  - OpenAI API Key: %s (%s)\n", maskToken(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	fmt.Printf("  - Language: %s\n", cfg.Language)
	fmt.Printf("  - Storage: %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == config.DriverPostgres {
		fmt.Printf("  - DB: %s@%s:%s/%s\n", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)
	} else {
		fmt.Printf("  - Storage Path: %s\n", cfg.Storage.Path)
	}
	if cfg.Redis.Enabled() {
		fmt.Printf("  - Redis: %s:%s\n", cfg.Redis.Host, cfg.Redis.Port)
	} else {
		fmt.Printf("  - Redis: %s\n", orUnset(""))
	}
	fmt.Printf("  - Goals: %.0f kcal, protein %.0f g, carbs %.0f%%, fat %.0f%%\n",
		cfg.Goals.Calories, cfg.Goals.Protein, cfg.Goals.CarbsPercentage*100, cfg.Goals.FatPercentage*100)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func orUnset(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
