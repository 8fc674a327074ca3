package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew_InstallsGlobalLogger(t *testing.T) {
	logger, cleanup := New("test")
	defer cleanup()

	assert.NotNil(t, logger)
	assert.Same(t, logger, zap.L())
}

func TestGormLogLevel(t *testing.T) {
	tests := []struct {
		environment string
		want        gormlogger.LogLevel
	}{
		{environment: "development", want: gormlogger.Info},
		{environment: "test", want: gormlogger.Silent},
		{environment: "production", want: gormlogger.Warn},
		{environment: "staging", want: gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			assert.Equal(t, tt.want, GormLogLevel(tt.environment))
		})
	}
}
