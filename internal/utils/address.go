package utils

import (
	"fmt"
	"strconv"

	"github.com/abisalde/marketplace-service/pkg/logger"
	"go.uber.org/zap"
)

const defaultPort = 8080

func getPort(raw string) int {
	port, err := strconv.Atoi(raw)
	if err != nil {
		logger.L().Warn("invalid port, defaulting", zap.String("port", raw), zap.Int("default", defaultPort))
		return defaultPort
	}

	if port < 10 || port > 65535 {
		logger.L().Warn("port out of range (10-65535), defaulting", zap.Int("port", port), zap.Int("default", defaultPort))
		return defaultPort
	}

	return port
}

// GetListenAddress binds every interface in production and the default host elsewhere.
func GetListenAddress(port, env string) string {
	p := getPort(port)

	if env == "production" {
		return fmt.Sprintf("0.0.0.0:%d", p)
	}
	return fmt.Sprintf(":%d", p)
}
