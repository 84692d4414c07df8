package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpawnerSetenvReplaces(t *testing.T) {
	s := &Spawner{Env: []string{"PATH=/bin", "STEWARDX_DIR=/opt/old", "STEWARDX_DIRECTORY=keep"}}

	s.Setenv("STEWARDX_DIR", "/run/sx")

	assert.Equal(t, []string{"PATH=/bin", "STEWARDX_DIRECTORY=keep", "STEWARDX_DIR=/run/sx"}, s.Env)
}

func TestSpawnerSetenvAdds(t *testing.T) {
	s := &Spawner{}

	s.Setenv("STEWARDX_DIR", "/tmp")

	assert.Equal(t, []string{"STEWARDX_DIR=/tmp"}, s.Env)
}
