package config

import (
    "os"
    "strconv"
    "time"
)

// envStr returns the value of k, or d when k is unset or empty.
func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

// envBool accepts the usual spellings of true/false (1, yes, on, ...).
// Anything else, including an empty value, yields d.
func envBool(k string, d bool) bool {
    switch os.Getenv(k) {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

// envInt parses k as a base-10 int, falling back to d on absence or error.
func envInt(k string, d int) int {
    if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
        return n
    }
    return d
}

// envDur parses k with time.ParseDuration ("30s", "1m"), falling back to d.
func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
        return dur
    }
    return d
}
