package util

import (
	"bytes"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clubverify/kyc-backend/model"
)

func captureSecurityLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := GetSecurityLoggerForTest()
	SetSecurityLoggerForTest(log.New(&buf, "[SECURITY] ", log.LstdFlags|log.Lmsgprefix))
	t.Cleanup(func() { SetSecurityLoggerForTest(original) })
	return &buf
}

func TestLogSecurityEventSanitizesInput(t *testing.T) {
	buf := captureSecurityLog(t)

	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		Email:     "evil@example.com\nEvent=LOGIN_SUCCESS",
		IP:        "10.0.0.1",
		Message:   "line1\r\nline2\tend",
	})

	out := buf.String()
	assert.Contains(t, out, "evil@example.com Event=LOGIN_SUCCESS")
	assert.NotContains(t, out, "\nEvent=LOGIN_SUCCESS")
	assert.Contains(t, out, "line1  line2 end")
}

func TestLogSecurityEventTruncatesLongValues(t *testing.T) {
	buf := captureSecurityLog(t)

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	LogSecurityEvent(SecurityEvent{
		EventType: EventSuspiciousActivity,
		UserAgent: string(long),
	})

	assert.Contains(t, buf.String(), "aaa...")
	assert.NotContains(t, buf.String(), string(long))
}

func TestLogSecurityEventPersistsToDB(t *testing.T) {
	captureSecurityLog(t)

	dsn := fmt.Sprintf("file:testdb_seclog_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SecurityLog{}))

	SetSecurityLoggerDB(db)
	t.Cleanup(func() { SetSecurityLoggerDB(nil) })

	LogSubmissionReceived("sub-abc", "203.0.113.9", "Mozilla/5.0")

	var entry model.SecurityLog
	require.NoError(t, db.Where("event_type = ?", string(EventSubmissionReceived)).First(&entry).Error)
	assert.Equal(t, "203.0.113.9", entry.IP)
	assert.Contains(t, entry.Message, "sub-abc")
	assert.Contains(t, string(entry.Details), "sub-abc")
}

func TestLogSubmissionReviewed(t *testing.T) {
	buf := captureSecurityLog(t)

	LogSubmissionReviewed(7, "reviewer@example.com", "sub-xyz", model.StatusApproved)

	out := buf.String()
	assert.Contains(t, out, "SUBMISSION_REVIEWED")
	assert.Contains(t, out, "sub-xyz")
	assert.Contains(t, out, "approved")
}
