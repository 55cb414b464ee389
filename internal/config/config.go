package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPPort    string
	LogLevel    string
	JWTSecret   string

	// Text-generation providers. LLMProvider selects the active one:
	// "azure", "grok", "huggingface" or "gemini".
	LLMProvider       string
	AzureEndpoint     string
	AzureAPIKey       string
	GrokAPIKey        string
	HuggingFaceToken  string
	GeminiAPIKey      string
	MaxHistoryWindow  int
	MaxResponseTokens int

	// Speech services.
	SpeechToTextURL  string
	TextToSpeechURL  string
	ElevenLabsAPIKey string
	DefaultVoiceID   string

	// Weather.
	WeatherAPIURL string

	// Crop recommender.
	CropRecommenderURL string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		DatabaseURL: getEnv("DATABASE_URL", "krishisakhi.db"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		LLMProvider:       getEnv("LLM_PROVIDER", "azure"),
		AzureEndpoint:     getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureAPIKey:       getEnv("AZURE_OPENAI_API_KEY", ""),
		GrokAPIKey:        getEnv("XAI_API_KEY", ""),
		HuggingFaceToken:  getEnv("HF_TOKEN", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		MaxHistoryWindow:  getEnvAsInt("MAX_HISTORY_WINDOW", 10),
		MaxResponseTokens: getEnvAsInt("MAX_RESPONSE_TOKENS", 500),

		SpeechToTextURL:  getEnv("SPEECH_TO_TEXT_URL", "https://api-inference.huggingface.co/models/openai/whisper-small"),
		TextToSpeechURL:  getEnv("TEXT_TO_SPEECH_URL", "https://api.elevenlabs.io/v1/text-to-speech"),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
		DefaultVoiceID:   getEnv("DEFAULT_VOICE_ID", "9BWtsMINqrJLrRacOk9x"),

		WeatherAPIURL: getEnv("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),

		CropRecommenderURL: getEnv("CROP_RECOMMENDER_URL", "https://harshil-malisetty-crop-recommender.hf.space/api/predict"),
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
