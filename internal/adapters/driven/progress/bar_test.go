package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, "")
	assert.Equal(t, "embedding", b.desc)

	b.Start(4)
	b.Add(2)
	b.Add(2)
	b.Finish()

	assert.NotEmpty(t, buf.String())
	assert.Nil(t, b.bar)
}

func TestBar_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, "records")

	b.Start(0)
	b.Add(1)
	b.Finish()

	assert.Empty(t, buf.String())
}

func TestNop(t *testing.T) {
	var n Nop
	n.Start(10)
	n.Add(10)
	n.Finish()
}
