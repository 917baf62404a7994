package utils

import (
	"github.com/google/uuid"
)

// GenerateID 生成任务ID
func GenerateID() string {
	return uuid.NewString()
}
