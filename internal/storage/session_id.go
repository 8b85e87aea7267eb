package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// sessionIDRandBytes 随机后缀长度 / Length of the random id suffix
const sessionIDRandBytes = 4

// NewSessionID 生成新的研究会话 ID，格式 sess_<unix>_<hex>。
// NewSessionID generates a new research session id, sess_<unix>_<hex>.
// The timestamp prefix keeps ids roughly sortable by creation time.
func NewSessionID() string {
	suffix := make([]byte, sessionIDRandBytes)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("sess_%d_%s", time.Now().UTC().Unix(), hex.EncodeToString(suffix))
}
