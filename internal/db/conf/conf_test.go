package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDBName(t *testing.T) {
	assert.Equal(t,
		"host=localhost user=postgres dbname=test_1 sslmode=disable",
		withDBName("host=localhost user=postgres dbname=postgres sslmode=disable", "test_1"))
	assert.Equal(t, "host=db dbname=test_2", withDBName("host=db", "test_2"))
}
