package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	APIToken string // Puste = brak autoryzacji

	CameraIndex  int
	CameraWidth  int
	CameraHeight int
	CameraFPS    int
	RefreshHz    int // Częstotliwość odświeżania ekranu, tempo pętli detekcji

	DetectorModelPath   string
	AgeGenderModelPath  string
	ExpressionModelPath string
	ONNXRuntimeLibPath  string
	DetectionWidth      int // Szerokość robocza modelu (klatka jest skalowana w dół)
	ScoreThreshold      float64
	NMSThreshold        float64

	StreamFrames bool // Wysyłaj klatki JPEG do przeglądarek
	Preview      bool // Okno podglądu gocv
	JPEGQuality  int

	DatabasePath string
	LogDirectory string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		APIToken:            getEnv("API_TOKEN", ""),
		CameraIndex:         getEnvAsInt("CAMERA_INDEX", 0),
		CameraWidth:         getEnvAsInt("CAMERA_WIDTH", 1280),
		CameraHeight:        getEnvAsInt("CAMERA_HEIGHT", 720),
		CameraFPS:           getEnvAsInt("CAMERA_FPS", 30),
		RefreshHz:           getEnvAsInt("REFRESH_HZ", 60),
		DetectorModelPath:   getEnv("DETECTOR_MODEL", filepath.Join(".", "models", "face_detection_yunet_2023mar.onnx")),
		AgeGenderModelPath:  getEnv("AGE_GENDER_MODEL", filepath.Join(".", "models", "genderage.onnx")),
		ExpressionModelPath: getEnv("EXPRESSION_MODEL", filepath.Join(".", "models", "emotion-ferplus-8.onnx")),
		ONNXRuntimeLibPath:  getEnv("ONNXRUNTIME_LIB", ""),
		DetectionWidth:      getEnvAsInt("DETECTION_WIDTH", 416),
		ScoreThreshold:      getEnvAsFloat("SCORE_THRESHOLD", 0.5),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.3),
		StreamFrames:        getEnvAsBool("STREAM_FRAMES", false),
		Preview:             getEnvAsBool("PREVIEW", false),
		JPEGQuality:         getEnvAsInt("JPEG_QUALITY", 75),
		DatabasePath:        getEnv("DB_PATH", filepath.Join(".", "data", "runs.db")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
