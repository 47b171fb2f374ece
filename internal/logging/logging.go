package logging

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// New builds the process logger: JSON in release mode, console otherwise
func New(mode string) (*zap.Logger, error) {
	if mode == gin.ReleaseMode {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
