package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestEnvBool(t *testing.T) {
    tests := []struct {
        value string
        def   bool
        want  bool
    }{
        {value: "", def: true, want: true},
        {value: "on", def: false, want: true},
        {value: "YES", def: false, want: true},
        {value: "0", def: true, want: false},
        {value: "off", def: true, want: false},
        {value: "maybe", def: true, want: true},
    }
    for _, tt := range tests {
        t.Run(tt.value, func(t *testing.T) {
            t.Setenv("TEST_ENV_BOOL", tt.value)
            assert.Equal(t, tt.want, envBool("TEST_ENV_BOOL", tt.def))
        })
    }
}

func TestEnvIntAndDur(t *testing.T) {
    t.Setenv("TEST_ENV_INT", "42")
    t.Setenv("TEST_ENV_DUR", "1m30s")
    assert.Equal(t, 42, envInt("TEST_ENV_INT", 7))
    assert.Equal(t, 90*time.Second, envDur("TEST_ENV_DUR", time.Second))

    t.Setenv("TEST_ENV_INT", "forty")
    t.Setenv("TEST_ENV_DUR", "soon")
    assert.Equal(t, 7, envInt("TEST_ENV_INT", 7))
    assert.Equal(t, time.Second, envDur("TEST_ENV_DUR", time.Second))

    t.Setenv("TEST_ENV_INT", "")
    assert.Equal(t, 7, envInt("TEST_ENV_INT", 7))
}

func TestEnvStr(t *testing.T) {
    t.Setenv("TEST_ENV_STR", "")
    assert.Equal(t, "fallback", envStr("TEST_ENV_STR", "fallback"))
    t.Setenv("TEST_ENV_STR", "set")
    assert.Equal(t, "set", envStr("TEST_ENV_STR", "fallback"))
}
