package id

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

const jobPrefix = "job_"

// New returns a random job id such as job_3f9a0c...; if the system random
// source fails it falls back to a timestamp.
func New() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return jobPrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return jobPrefix + hex.EncodeToString(b[:])
}
