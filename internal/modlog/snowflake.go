package modlog

import (
	"strconv"
	"time"
)

// Milliseconds between the unix epoch and the first second of 2015
const discordEpoch int64 = 1420070400000

// Smallest message id that can have been created at the instant
func SnowflakeAt(instant time.Time) string {
	ms := instant.UnixMilli() - discordEpoch
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms<<22, 10)
}

func SnowflakeTime(id string) (time.Time, error) {
	value, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(value>>22 + discordEpoch), nil
}
